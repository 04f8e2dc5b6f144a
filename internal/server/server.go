// Package server exposes the portal over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/knowledge-portal/pkg/logging"
	"github.com/Sternrassler/knowledge-portal/pkg/metrics"
	"github.com/Sternrassler/knowledge-portal/pkg/portal"
	"github.com/Sternrassler/knowledge-portal/pkg/ratelimit"
	"github.com/Sternrassler/knowledge-portal/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRequestTimeout bounds the work done for a single API request.
const DefaultRequestTimeout = 30 * time.Second

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "portal_http_requests_total",
	Help: "API requests served by route and status code",
}, []string{"route", "status"})

// Portal is the read API served over HTTP.
type Portal interface {
	Tree(ctx context.Context) ([]tree.Item, error)
	Golden(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, goldenOnly bool) (portal.Snapshot, error)
	Browse(ctx context.Context, path string) (*portal.Page, error)
	RateLimit(ctx context.Context) (*ratelimit.State, error)
}

// Option configures a Server.
type Option func(*Server)

// WithRedis makes /ready check the Redis connection.
func WithRedis(redisClient *redis.Client) Option {
	return func(s *Server) {
		s.redis = redisClient
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// Server serves the portal API.
type Server struct {
	portal  Portal
	redis   *redis.Client
	timeout time.Duration
	logger  zerolog.Logger
	mux     *http.ServeMux
}

// New creates a server. logger is the untagged base logger.
func New(p Portal, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		portal:  p,
		timeout: DefaultRequestTimeout,
		logger:  logging.Component(logger, "server"),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /health", healthHandler)
	s.mux.HandleFunc("GET /ready", s.readyHandler)
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.HandleFunc("GET /api/tree", s.treeHandler)
	s.mux.HandleFunc("GET /api/golden", s.goldenHandler)
	s.mux.HandleFunc("GET /api/browse/{path...}", s.browseHandler)
	s.mux.HandleFunc("GET /api/ratelimit", s.rateLimitHandler)

	return s
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting portal server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down portal server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Redis not reachable")
			http.Error(w, "Redis not reachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) treeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	goldenOnly := r.URL.Query().Get("golden") == "true"
	snap, err := s.portal.Snapshot(ctx, goldenOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) goldenHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	files, err := s.portal.Golden(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": files})
}

func (s *Server) browseHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	page, err := s.portal.Browse(ctx, r.PathValue("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageResponse(page))
}

func (s *Server) rateLimitHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	state, err := s.portal.RateLimit(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRateLimitResponse(state, time.Now()))
}
