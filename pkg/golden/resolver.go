// Package golden resolves the golden documents of the repository: the
// explicit manifest when it is present and well formed, otherwise every
// document whose frontmatter marks it as golden.
package golden

import (
	"context"
	"errors"

	"github.com/Sternrassler/knowledge-portal/pkg/cache"
	"github.com/Sternrassler/knowledge-portal/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for golden resolution.
var goldenResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "portal_golden_resolutions_total",
	Help: "Golden set resolutions by the phase that produced them",
}, []string{"phase"})

const (
	phaseManifest = "manifest"
	phaseScan     = "scan"
	phaseDegraded = "degraded"
)

// errDegraded marks a scan over an unavailable tree. It keeps the empty
// result out of the cache.
var errDegraded = errors.New("golden scan ran without a tree")

// TreeSource provides the flat document tree. Load reports an unavailable
// tree with tree.ErrUnavailable.
type TreeSource interface {
	Load(ctx context.Context) ([]tree.Item, error)
}

// DocumentSource provides raw document content.
type DocumentSource interface {
	Raw(ctx context.Context, path string) (string, bool, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithManifestPath overrides DefaultManifestPath.
func WithManifestPath(path string) Option {
	return func(r *Resolver) {
		if path != "" {
			r.manifestPath = path
		}
	}
}

// Resolver resolves the golden set.
type Resolver struct {
	trees        TreeSource
	docs         DocumentSource
	manifestPath string
	loader       *cache.Loader[[]string]
	logger       zerolog.Logger
}

// NewResolver creates a resolver caching the golden set in store.
func NewResolver(trees TreeSource, docs DocumentSource, store cache.Store[[]string], logger zerolog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		trees:        trees,
		docs:         docs,
		manifestPath: DefaultManifestPath,
		loader:       cache.NewLoader(store),
		logger:       logger.With().Str("component", "golden").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the golden document paths. Remote failures yield an
// empty or partial set; only a configuration error is returned.
func (r *Resolver) Resolve(ctx context.Context) ([]string, error) {
	paths, err := r.loader.Load(ctx, cache.GoldenKey(), r.resolve)
	if err != nil {
		if errors.Is(err, errDegraded) {
			return []string{}, nil
		}
		return nil, err
	}

	out := make([]string, len(paths))
	copy(out, paths)
	return out, nil
}

func (r *Resolver) resolve(ctx context.Context) ([]string, error) {
	raw, ok, err := r.docs.Raw(ctx, r.manifestPath)
	if err != nil {
		return nil, err
	}
	if ok {
		manifest, err := ParseManifest(raw)
		if err == nil {
			goldenResolutions.WithLabelValues(phaseManifest).Inc()
			r.logger.Info().
				Str("phase", phaseManifest).
				Int("items", len(manifest.Files)).
				Msg("Resolved golden set from manifest")
			return manifest.Files, nil
		}
		r.logger.Warn().
			Err(err).
			Str("path", r.manifestPath).
			Msg("Ignoring malformed golden manifest, scanning documents")
	}

	return r.scan(ctx)
}

// scan fetches every document one at a time and keeps those whose leading
// frontmatter block carries the golden marker.
func (r *Resolver) scan(ctx context.Context) ([]string, error) {
	items, err := r.trees.Load(ctx)
	if err != nil {
		if errors.Is(err, tree.ErrUnavailable) {
			goldenResolutions.WithLabelValues(phaseDegraded).Inc()
			r.logger.Warn().Err(err).Str("phase", phaseScan).Msg("Tree unavailable, golden set is empty")
			return nil, errDegraded
		}
		return nil, err
	}

	golden := make([]string, 0)
	for _, item := range items {
		if item.Kind != tree.KindFile {
			continue
		}

		raw, ok, err := r.docs.Raw(ctx, item.Path)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Debug().Str("path", item.Path).Msg("Document unavailable, not golden")
			continue
		}
		if IsGolden(raw) {
			golden = append(golden, item.Path)
		}
	}

	goldenResolutions.WithLabelValues(phaseScan).Inc()
	r.logger.Info().
		Str("phase", phaseScan).
		Int("documents", len(items)).
		Int("items", len(golden)).
		Msg("Resolved golden set by scanning documents")

	return golden, nil
}
