// Package testutil provides testing utilities for the knowledge portal.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines a canned response for a single URL path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockTreeEntry is one entry of the recursive tree listing.
type MockTreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

var routePattern = regexp.MustCompile(`^/repos/([^/]+)/([^/]+)/(git/trees|contents)(?:/(.*))?$`)

// MockGitHub is a configurable mock of the GitHub REST API serving one
// repository: the recursive tree listing and the contents endpoint.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	tree     []MockTreeEntry
	files    map[string]string

	rateLimit map[string]string

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	requests          map[string]int
}

// NewMockGitHub creates a new mock GitHub server with an empty repository.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		files:    make(map[string]string),
		requests: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.requests[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		for key, value := range mock.rateLimit {
			w.Header().Set(key, value)
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.requests = make(map[string]int)
}

// TreePath returns the URL path of the recursive tree listing.
func TreePath(owner, repo, branch string) string {
	return "/repos/" + owner + "/" + repo + "/git/trees/" + branch
}

// ContentsPath returns the URL path of the contents endpoint for a file.
func ContentsPath(owner, repo, filePath string) string {
	return "/repos/" + owner + "/" + repo + "/contents/" + filePath
}

// SetHandler sets a custom handler for a specific URL path.
func (m *MockGitHub) SetHandler(urlPath string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[urlPath] = handler
}

// SetResponse configures a canned response for a URL path.
func (m *MockGitHub) SetResponse(urlPath string, resp MockResponse) {
	m.SetHandler(urlPath, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetFile stores a file and lists it as a blob in the tree.
func (m *MockGitHub) SetFile(filePath, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filePath] = content
	for _, e := range m.tree {
		if e.Path == filePath {
			return
		}
	}
	m.tree = append(m.tree, MockTreeEntry{Path: filePath, Type: "blob", SHA: fakeSHA(filePath)})
}

// SetBlobs lists blobs in the tree without content.
func (m *MockGitHub) SetBlobs(paths ...string) {
	entries := make([]MockTreeEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, MockTreeEntry{Path: p, Type: "blob", SHA: fakeSHA(p)})
	}
	m.AddTreeEntries(entries...)
}

// AddTreeEntries appends raw entries to the tree listing.
func (m *MockGitHub) AddTreeEntries(entries ...MockTreeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree = append(m.tree, entries...)
}

// SetRateLimit adds GitHub rate limit headers to every response.
func (m *MockGitHub) SetRateLimit(limit, remaining int, reset time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimit = map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(limit),
		"X-RateLimit-Remaining": strconv.Itoa(remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(reset.Unix(), 10),
	}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// RequestsFor returns the number of requests made for a URL path.
func (m *MockGitHub) RequestsFor(urlPath string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[urlPath]
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockGitHub) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// defaultHandler serves the configured repository.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	match := routePattern.FindStringSubmatch(r.URL.Path)
	if match == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	switch match[3] {
	case "git/trees":
		m.serveTree(w, match[4])
	case "contents":
		m.serveContents(w, match[4])
	}
}

func (m *MockGitHub) serveTree(w http.ResponseWriter, branch string) {
	m.mu.RLock()
	entries := make([]MockTreeEntry, len(m.tree))
	copy(entries, m.tree)
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"sha":       fakeSHA(branch),
		"tree":      entries,
		"truncated": false,
	})
}

func (m *MockGitHub) serveContents(w http.ResponseWriter, filePath string) {
	filePath = strings.Trim(filePath, "/")

	m.mu.RLock()
	content, isFile := m.files[filePath]
	var children []map[string]string
	if !isFile {
		children = m.directoryListing(filePath)
	}
	m.mu.RUnlock()

	switch {
	case isFile:
		writeJSON(w, http.StatusOK, map[string]string{
			"type":     "file",
			"encoding": "base64",
			"name":     path.Base(filePath),
			"path":     filePath,
			"sha":      fakeSHA(filePath),
			"content":  wrapBase64(base64.StdEncoding.EncodeToString([]byte(content))),
		})
	case len(children) > 0:
		writeJSON(w, http.StatusOK, children)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

// directoryListing returns the direct children of dir. Caller holds mu.
func (m *MockGitHub) directoryListing(dir string) []map[string]string {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	seen := make(map[string]string)
	for _, e := range m.tree {
		if !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(e.Path, prefix)
		if name, _, deeper := strings.Cut(rest, "/"); deeper {
			seen[name] = "dir"
		} else if rest != "" {
			seen[rest] = "file"
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	listing := make([]map[string]string, 0, len(names))
	for _, name := range names {
		listing = append(listing, map[string]string{
			"type": seen[name],
			"name": name,
			"path": prefix + name,
		})
	}
	return listing
}

// wrapBase64 breaks the encoding into 60 character lines the way GitHub does.
func wrapBase64(s string) string {
	var b strings.Builder
	for len(s) > 60 {
		b.WriteString(s[:60])
		b.WriteByte('\n')
		s = s[60:]
	}
	b.WriteString(s)
	return b.String()
}

func fakeSHA(s string) string {
	sum := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		sum ^= uint32(s[i])
		sum *= 16777619
	}
	return strconv.FormatUint(uint64(sum), 16)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message": "Not Found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewFileResponse creates a contents response for a file with the given raw content.
func NewFileResponse(filePath, content string) MockResponse {
	body, _ := json.Marshal(map[string]string{
		"type":     "file",
		"encoding": "base64",
		"name":     path.Base(filePath),
		"path":     filePath,
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
	})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
