package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/knowledge-portal/pkg/cache"
	"github.com/Sternrassler/knowledge-portal/pkg/client"
	"github.com/rs/zerolog"
)

// ErrUnavailable marks a tree that could not be fetched. Resolve and
// ListChildren turn it into an empty result; nothing derived from it is
// cached.
var ErrUnavailable = errors.New("tree unavailable")

// Fetcher fetches the recursive listing of a branch.
type Fetcher interface {
	FetchTree(ctx context.Context, branch string) client.Result[[]client.TreeEntry]
}

// Resolver resolves the document tree of one branch and its directory
// listings through a shared cache.
type Resolver struct {
	fetcher Fetcher
	branch  string
	loader  *cache.Loader[[]Item]
	logger  zerolog.Logger
}

// NewResolver creates a resolver. The tree and every directory listing
// are cached in store under their own keys.
func NewResolver(fetcher Fetcher, store cache.Store[[]Item], branch string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		branch:  branch,
		loader:  cache.NewLoader(store),
		logger:  logger.With().Str("component", "tree").Str("branch", branch).Logger(),
	}
}

// Branch returns the resolved branch.
func (r *Resolver) Branch() string {
	return r.branch
}

// Resolve returns every document of the branch sorted by path. Remote
// failures resolve to an empty tree; only a configuration error is
// returned.
func (r *Resolver) Resolve(ctx context.Context) ([]Item, error) {
	items, err := r.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return []Item{}, nil
		}
		return nil, err
	}
	return clone(items), nil
}

// ListChildren returns the direct children of prefix. An empty result
// does not mean the directory does not exist.
func (r *Resolver) ListChildren(ctx context.Context, prefix string) ([]Item, error) {
	prefix = NormalizePrefix(prefix)

	children, err := r.loader.Load(ctx, cache.DirKey(prefix), func(ctx context.Context) ([]Item, error) {
		items, err := r.Load(ctx)
		if err != nil {
			return nil, err
		}
		children := Children(items, prefix)
		r.logger.Debug().
			Str("prefix", prefix).
			Int("items", len(children)).
			Msg("Synthesized directory listing")
		return children, nil
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return []Item{}, nil
		}
		return nil, err
	}
	return clone(children), nil
}

// Load returns the cached tree or fetches it. Unlike Resolve it reports a
// degraded tree: failures other than a configuration error wrap
// ErrUnavailable. The returned slice is shared with the cache and must not
// be modified.
func (r *Resolver) Load(ctx context.Context) ([]Item, error) {
	return r.loader.Load(ctx, cache.TreeKey(r.branch), func(ctx context.Context) ([]Item, error) {
		res := r.fetcher.FetchTree(ctx, r.branch)

		switch res.Outcome {
		case client.OutcomeSuccess:
			items := Build(res.Value)
			r.logger.Info().
				Int("items", len(items)).
				Int("entries", len(res.Value)).
				Msg("Resolved document tree")
			return items, nil
		case client.OutcomeNotFound:
			r.logger.Warn().Msg("Branch not found, serving an empty tree")
			return nil, ErrUnavailable
		case client.OutcomeConfigurationError:
			return nil, res.Err
		default:
			r.logger.Error().
				Err(res.Err).
				Str("outcome", res.Outcome.String()).
				Msg("Fetching tree failed, serving an empty tree")
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, res.Err)
		}
	})
}
