// Package client provides the GitHub content client used by the portal:
// the recursive tree listing of a branch and per-path contents, with
// rate-limit gating and explicit result outcomes.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/knowledge-portal/pkg/ratelimit"
	"github.com/google/go-github/v67/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for remote operations.
var (
	remoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_remote_requests_total",
		Help: "Total GitHub API calls by operation and outcome",
	}, []string{"operation", "outcome"})

	remoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_remote_request_duration_seconds",
		Help:    "GitHub API call duration in seconds by operation",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})
)

const (
	opFetchTree = "fetch_tree"
	opFetchBlob = "fetch_blob"
)

// Entry types of the recursive tree listing.
const (
	EntryTypeBlob = "blob"
	EntryTypeTree = "tree"
)

// Content kinds returned by FetchBlob.
const (
	KindFile = "file"
	KindDir  = "dir"
)

// TreeEntry is one raw entry of the recursive listing.
type TreeEntry struct {
	Path string
	Type string
	SHA  string
}

// Blob is the content of a single path. Content is only set for files.
type Blob struct {
	Path    string
	Kind    string
	Content string
}

// Config holds the client configuration.
type Config struct {
	// Repository coordinates
	Owner  string
	Repo   string
	Branch string

	// Token is the bearer credential. It is required for every call.
	Token string

	// BaseURL overrides the GitHub API endpoint (GitHub Enterprise, tests).
	BaseURL string

	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns the default repository coordinates.
func DefaultConfig() Config {
	return Config{
		Owner:     "Work-Local-Inc",
		Repo:      "worklocal-knowledge",
		Branch:    "main",
		UserAgent: "Worklocal-Knowledge-Portal",
		Timeout:   30 * time.Second,
	}
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimiter gates requests on the given tracker.
func WithRateLimiter(tracker *ratelimit.Tracker) Option {
	return func(c *Client) {
		c.rateLimiter = tracker
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client fetches repository content from GitHub. It does not cache.
type Client struct {
	gh          *github.Client
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// New creates a new client. Empty coordinates fall back to DefaultConfig.
// A missing token is not an error here: it is reported by every call that
// needs the network.
func New(cfg Config, opts ...Option) (*Client, error) {
	defaults := DefaultConfig()
	if cfg.Owner == "" {
		cfg.Owner = defaults.Owner
	}
	if cfg.Repo == "" {
		cfg.Repo = defaults.Repo
	}
	if cfg.Branch == "" {
		cfg.Branch = defaults.Branch
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	c := &Client{
		config: cfg,
		logger: log.With().Str("component", "github-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	gh := github.NewClient(c.httpClient)
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}
	gh.UserAgent = cfg.UserAgent

	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, &ConfigurationError{Setting: "GITHUB_API_URL", Err: err}
		}
		gh.BaseURL = baseURL
	}
	c.gh = gh

	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// FetchTree fetches the recursive listing of branch.
func (c *Client) FetchTree(ctx context.Context, branch string) Result[[]TreeEntry] {
	logger := c.logger.With().Str("branch", branch).Logger()

	if outcome, err := c.preflight(ctx, opFetchTree); err != nil {
		c.logOutcome(logger, opFetchTree, outcome, err)
		return failed[[]TreeEntry](outcome, err)
	}

	start := time.Now()
	tree, resp, err := c.gh.Git.GetTree(ctx, c.config.Owner, c.config.Repo, branch, true)
	outcome, err := c.complete(ctx, opFetchTree, start, resp, err)
	if outcome != OutcomeSuccess {
		c.logOutcome(logger, opFetchTree, outcome, err)
		return failed[[]TreeEntry](outcome, err)
	}

	if tree.GetTruncated() {
		logger.Warn().
			Int("items", len(tree.Entries)).
			Msg("Tree listing truncated by GitHub")
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, TreeEntry{
			Path: e.GetPath(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
		})
	}

	logger.Debug().
		Int("items", len(entries)).
		Dur("duration", time.Since(start)).
		Msg("Fetched tree")

	return Result[[]TreeEntry]{Value: entries, Outcome: OutcomeSuccess}
}

// FetchBlob fetches the content of path on the configured branch.
// A directory yields a Blob of KindDir without content.
func (c *Client) FetchBlob(ctx context.Context, path string) Result[Blob] {
	logger := c.logger.With().Str("path", path).Logger()

	if outcome, err := c.preflight(ctx, opFetchBlob); err != nil {
		c.logOutcome(logger, opFetchBlob, outcome, err)
		return failed[Blob](outcome, err)
	}

	start := time.Now()
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, c.config.Owner, c.config.Repo, path,
		&github.RepositoryContentGetOptions{Ref: c.config.Branch})
	outcome, err := c.complete(ctx, opFetchBlob, start, resp, err)
	if outcome != OutcomeSuccess {
		c.logOutcome(logger, opFetchBlob, outcome, err)
		return failed[Blob](outcome, err)
	}

	if file == nil {
		logger.Debug().Int("items", len(dir)).Msg("Path is a directory")
		return Result[Blob]{Value: Blob{Path: path, Kind: KindDir}, Outcome: OutcomeSuccess}
	}

	blob := Blob{Path: path, Kind: file.GetType()}
	if blob.Kind == KindFile {
		content, err := file.GetContent()
		if err != nil {
			parseErr := &ParseError{Operation: opFetchBlob, Path: path, Err: err}
			c.logOutcome(logger, opFetchBlob, OutcomeParseError, parseErr)
			return failed[Blob](OutcomeParseError, parseErr)
		}
		blob.Content = content
	}

	logger.Debug().
		Str("kind", blob.Kind).
		Int("bytes", len(blob.Content)).
		Dur("duration", time.Since(start)).
		Msg("Fetched blob")

	return Result[Blob]{Value: blob, Outcome: OutcomeSuccess}
}

// preflight checks the credential and the rate limit before any request.
func (c *Client) preflight(ctx context.Context, op string) (Outcome, error) {
	if c.config.Token == "" {
		remoteRequestsTotal.WithLabelValues(op, OutcomeConfigurationError.String()).Inc()
		return OutcomeConfigurationError, &ConfigurationError{Setting: "GITHUB_TOKEN", Err: ErrMissingCredential}
	}

	if c.rateLimiter == nil {
		return OutcomeSuccess, nil
	}

	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		// State store failures do not block requests.
		c.logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
		return OutcomeSuccess, nil
	}
	if !allowed {
		remoteRequestsTotal.WithLabelValues(op, "rate_limited").Inc()
		return OutcomeRemoteError, &RemoteError{
			Operation:  op,
			StatusCode: http.StatusForbidden,
			Status:     ErrRateLimited.Error(),
			Err:        ErrRateLimited,
		}
	}

	return OutcomeSuccess, nil
}

// complete records metrics and rate limit headers and classifies the call.
func (c *Client) complete(ctx context.Context, op string, start time.Time, resp *github.Response, err error) (Outcome, error) {
	remoteRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if c.rateLimiter != nil && resp != nil && resp.Response != nil {
		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}
	}

	outcome, err := classify(op, err)
	remoteRequestsTotal.WithLabelValues(op, outcome.String()).Inc()
	return outcome, err
}

// classify maps a go-github error to an outcome.
// 404 is not an error. Transport failures are returned unchanged.
func classify(op string, err error) (Outcome, error) {
	if err == nil {
		return OutcomeSuccess, nil
	}

	if errors.Is(err, github.ErrPathForbidden) {
		return OutcomeNotFound, nil
	}

	var (
		statusCode int
		errResp    *github.ErrorResponse
		rateErr    *github.RateLimitError
		abuseErr   *github.AbuseRateLimitError
		accepted   *github.AcceptedError
		hasStatus  = true
	)
	switch {
	case errors.As(err, &errResp) && errResp.Response != nil:
		statusCode = errResp.Response.StatusCode
	case errors.As(err, &rateErr) && rateErr.Response != nil:
		statusCode = rateErr.Response.StatusCode
	case errors.As(err, &abuseErr) && abuseErr.Response != nil:
		statusCode = abuseErr.Response.StatusCode
	case errors.As(err, &accepted):
		statusCode = http.StatusAccepted
	default:
		hasStatus = false
	}

	if !hasStatus {
		return OutcomeRemoteError, err
	}
	if statusCode == http.StatusNotFound {
		return OutcomeNotFound, nil
	}

	return OutcomeRemoteError, &RemoteError{
		Operation:  op,
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Err:        err,
	}
}

func (c *Client) logOutcome(logger zerolog.Logger, op string, outcome Outcome, err error) {
	switch outcome {
	case OutcomeNotFound:
		logger.Debug().Str("operation", op).Str("outcome", outcome.String()).Msg("Not found on GitHub")
	case OutcomeConfigurationError:
		logger.Error().Err(err).Str("operation", op).Msg("GitHub client is not configured")
	default:
		event := logger.Warn().Err(err).Str("operation", op).Str("outcome", outcome.String())
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			event = event.Int("status_code", remoteErr.StatusCode)
		}
		event.Msg("GitHub request failed")
	}
}

// String returns a short description for logs.
func (c *Client) String() string {
	return fmt.Sprintf("%s/%s@%s", c.config.Owner, c.config.Repo, c.config.Branch)
}
