package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/knowledge-portal/pkg/client"
	"github.com/Sternrassler/knowledge-portal/pkg/frontmatter"
	"github.com/Sternrassler/knowledge-portal/pkg/portal"
	"github.com/Sternrassler/knowledge-portal/pkg/ratelimit"
	"github.com/Sternrassler/knowledge-portal/pkg/tree"
)

// setupSteps tell an operator how to provide the missing configuration.
var setupSteps = []string{
	"Create a GitHub personal access token with read access to the repository.",
	"Set GITHUB_TOKEN to the token.",
	"Optionally set REPO_OWNER (default Work-Local-Inc), REPO_NAME (default worklocal-knowledge) and REPO_BRANCH (default main).",
	"Restart the portal.",
}

type errorResponse struct {
	Error string   `json:"error"`
	Setup []string `json:"setup,omitempty"`
}

type documentResponse struct {
	Path          string               `json:"path"`
	Title         string               `json:"title"`
	Metadata      frontmatter.Metadata `json:"metadata"`
	Body          string               `json:"body"`
	MetadataError string               `json:"metadata_error,omitempty"`
}

type pageResponse struct {
	Path     string            `json:"path"`
	Kind     portal.PageKind   `json:"kind"`
	Document *documentResponse `json:"document,omitempty"`
	Children []tree.Item       `json:"children,omitempty"`
	Links    portal.Links      `json:"links"`
}

func newPageResponse(page *portal.Page) pageResponse {
	resp := pageResponse{
		Path:     page.Path,
		Kind:     page.Kind,
		Children: page.Children,
		Links:    page.Links,
	}
	if page.Kind == portal.PageDirectory && resp.Children == nil {
		resp.Children = []tree.Item{}
	}
	if doc := page.Document; doc != nil {
		resp.Document = &documentResponse{
			Path:     doc.Path,
			Title:    doc.Title(),
			Metadata: doc.Metadata,
			Body:     doc.Body,
		}
		if doc.MetadataErr != nil {
			resp.Document.MetadataError = doc.MetadataErr.Error()
		}
	}
	return resp
}

// rateLimitResponse is the tracker state plus whether it predates the
// current rate limit window.
type rateLimitResponse struct {
	*ratelimit.State
	Stale bool `json:"stale"`
}

func newRateLimitResponse(state *ratelimit.State, now time.Time) rateLimitResponse {
	return rateLimitResponse{
		State: state,
		Stale: state.IsStale(now, ratelimit.Window),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps portal errors to HTTP statuses. A missing credential is
// 503 with setup instructions.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case client.IsConfigurationError(err):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Portal is not configured")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Setup: setupSteps})
	case errors.Is(err, portal.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(route(r), strconv.Itoa(rec.status)).Inc()

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status_code", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

// route returns the registered pattern so browse paths do not explode the
// label cardinality.
func route(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}
