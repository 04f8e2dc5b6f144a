// Package portal wires the GitHub client, the caches and the resolvers into
// the read API of the knowledge portal: the document tree, directory
// listings, the golden set and individual documents.
package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/knowledge-portal/pkg/cache"
	"github.com/Sternrassler/knowledge-portal/pkg/client"
	"github.com/Sternrassler/knowledge-portal/pkg/document"
	"github.com/Sternrassler/knowledge-portal/pkg/golden"
	"github.com/Sternrassler/knowledge-portal/pkg/logging"
	"github.com/Sternrassler/knowledge-portal/pkg/ratelimit"
	"github.com/Sternrassler/knowledge-portal/pkg/tree"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// ErrNotFound is returned by Browse for a path that is neither a document
// nor a directory.
var ErrNotFound = errors.New("not found")

// Option configures a Portal.
type Option func(*Portal)

// WithLogger sets the base logger every component logger derives from.
// It must not carry a component field.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Portal) {
		p.base = logger
	}
}

// Portal is the read API over one repository branch.
type Portal struct {
	config  Config
	client  *client.Client
	tracker *ratelimit.Tracker
	codec   *cache.Codec
	trees   *tree.Resolver
	docs    *document.Fetcher
	golden  *golden.Resolver
	base    zerolog.Logger
	logger  zerolog.Logger
}

// New creates a portal.
func New(cfg Config, opts ...Option) (*Portal, error) {
	defaults := DefaultConfig()
	if cfg.Backend == "" {
		cfg.Backend = defaults.Backend
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = defaults.ManifestPath
	}
	if cfg.WebURL == "" {
		cfg.WebURL = defaults.WebURL
	}
	if cfg.RawURL == "" {
		cfg.RawURL = defaults.RawURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Portal{base: log.Logger}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.Component(p.base, "portal")

	var rateStore ratelimit.Store
	if cfg.Backend == BackendRedis {
		rateStore = ratelimit.NewRedisStore(cfg.Redis)
	}
	p.tracker = ratelimit.NewTracker(rateStore, logging.Component(p.base, "ratelimit"))

	clientOpts := []client.Option{
		client.WithRateLimiter(p.tracker),
		client.WithLogger(logging.Component(p.base, "github-client")),
	}
	if cfg.HTTPClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(cfg.HTTPClient))
	}
	c, err := client.New(cfg.Client, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}
	p.client = c
	cfg.Client = c.Config()
	p.config = cfg

	storeOpts := []cache.Option{
		cache.WithTTL(cfg.CacheTTL),
		cache.WithLogger(logging.Component(p.base, "cache")),
		cache.WithKeyPrefix(p.keyPrefix()),
	}
	if cfg.Clock != nil {
		storeOpts = append(storeOpts, cache.WithClock(cfg.Clock))
	}

	treeStore, fileStore, goldenStore, err := p.stores(storeOpts)
	if err != nil {
		return nil, err
	}

	p.trees = tree.NewResolver(c, treeStore, cfg.Client.Branch, p.base)
	p.docs = document.NewFetcher(c, fileStore, p.base)
	p.golden = golden.NewResolver(p.trees, p.docs, goldenStore, p.base, golden.WithManifestPath(cfg.ManifestPath))

	p.logger.Info().
		Str("repository", c.String()).
		Str("backend", string(cfg.Backend)).
		Dur("ttl", cfg.CacheTTL).
		Bool("compressed", p.codec != nil && p.codec.Compressing()).
		Bool("token", cfg.Client.Token != "").
		Msg("Portal initialized")

	return p, nil
}

func (p *Portal) stores(opts []cache.Option) (cache.Store[[]tree.Item], cache.Store[string], cache.Store[[]string], error) {
	if p.config.Backend != BackendRedis {
		return cache.NewMemory[[]tree.Item](opts...), cache.NewMemory[string](opts...), cache.NewMemory[[]string](opts...), nil
	}

	codec, err := cache.NewCodec(p.config.Compress)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create cache codec: %w", err)
	}
	p.codec = codec
	opts = append(opts, cache.WithCodec(codec))

	rdb := p.config.Redis
	return cache.NewRedis[[]tree.Item](rdb, opts...), cache.NewRedis[string](rdb, opts...), cache.NewRedis[[]string](rdb, opts...), nil
}

// keyPrefix scopes shared cache keys to the repository and branch.
// Format: portal:owner/repo@branch
func (p *Portal) keyPrefix() string {
	cfg := p.config.Client
	return fmt.Sprintf("portal:%s/%s@%s", cfg.Owner, cfg.Repo, cfg.Branch)
}

// Config returns the effective configuration.
func (p *Portal) Config() Config {
	return p.config
}

// RateLimit returns the last observed GitHub rate limit state.
func (p *Portal) RateLimit(ctx context.Context) (*ratelimit.State, error) {
	return p.tracker.GetState(ctx)
}

// Close releases the cache codec.
func (p *Portal) Close() error {
	if p.codec != nil {
		return p.codec.Close()
	}
	return nil
}

// Tree returns every document of the branch sorted by path.
func (p *Portal) Tree(ctx context.Context) ([]tree.Item, error) {
	return p.trees.Resolve(ctx)
}

// List returns the direct children of a directory prefix.
func (p *Portal) List(ctx context.Context, prefix string) ([]tree.Item, error) {
	return p.trees.ListChildren(ctx, prefix)
}

// Golden returns the golden document paths.
func (p *Portal) Golden(ctx context.Context) ([]string, error) {
	return p.golden.Resolve(ctx)
}

// Document returns the parsed document at path.
func (p *Portal) Document(ctx context.Context, path string) (document.Document, bool, error) {
	return p.docs.Get(ctx, path)
}

// PageKind tells what Browse found at a path.
type PageKind string

// Page kinds.
const (
	PageDocument  PageKind = "document"
	PageDirectory PageKind = "directory"
)

// Page is the result of Browse.
type Page struct {
	Path     string             `json:"path"`
	Kind     PageKind           `json:"kind"`
	Document *document.Document `json:"document,omitempty"`
	Children []tree.Item        `json:"children,omitempty"`
	Links    Links              `json:"links"`
}

// Browse resolves path as a document first and as a directory second. The
// root always exists; any other path with neither content nor children is
// ErrNotFound.
func (p *Portal) Browse(ctx context.Context, path string) (*Page, error) {
	path = strings.Trim(path, "/")

	if path != "" {
		doc, ok, err := p.docs.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Page{Path: path, Kind: PageDocument, Document: &doc, Links: p.Links(path)}, nil
		}
	}

	children, err := p.trees.ListChildren(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 && path != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	return &Page{Path: path, Kind: PageDirectory, Children: children, Links: p.Links(path)}, nil
}

// Links are the GitHub URLs of a path.
type Links struct {
	Blob string `json:"blob"`
	Raw  string `json:"raw"`
	Tree string `json:"tree"`
}

// Links returns the GitHub URLs of path on the configured branch.
func (p *Portal) Links(path string) Links {
	cfg := p.config.Client
	path = strings.Trim(path, "/")
	repo := cfg.Owner + "/" + cfg.Repo

	return Links{
		Blob: fmt.Sprintf("%s/%s/blob/%s/%s", strings.TrimSuffix(p.config.WebURL, "/"), repo, cfg.Branch, path),
		Raw:  fmt.Sprintf("%s/%s/%s/%s", strings.TrimSuffix(p.config.RawURL, "/"), repo, cfg.Branch, path),
		Tree: fmt.Sprintf("%s/%s/tree/%s/%s", strings.TrimSuffix(p.config.WebURL, "/"), repo, cfg.Branch, path),
	}
}

// Snapshot is the tree together with the golden set.
type Snapshot struct {
	Items  []tree.Item `json:"items"`
	Golden []string    `json:"golden"`
}

// Snapshot resolves the tree and the golden set concurrently. With
// goldenOnly the tree is filtered to golden documents.
func (p *Portal) Snapshot(ctx context.Context, goldenOnly bool) (Snapshot, error) {
	var items []tree.Item
	var goldenPaths []string

	wp := pool.New().WithContext(ctx).WithFirstError().WithCancelOnError()
	wp.Go(func(ctx context.Context) error {
		var err error
		items, err = p.trees.Resolve(ctx)
		return err
	})
	wp.Go(func(ctx context.Context) error {
		var err error
		goldenPaths, err = p.golden.Resolve(ctx)
		return err
	})
	if err := wp.Wait(); err != nil {
		return Snapshot{}, err
	}

	if goldenOnly {
		items = filterGolden(items, goldenPaths)
	}

	return Snapshot{Items: items, Golden: goldenPaths}, nil
}

func filterGolden(items []tree.Item, goldenPaths []string) []tree.Item {
	set := make(map[string]struct{}, len(goldenPaths))
	for _, p := range goldenPaths {
		set[p] = struct{}{}
	}

	filtered := make([]tree.Item, 0, len(goldenPaths))
	for _, item := range items {
		if _, ok := set[item.Path]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
