// Package document fetches individual markdown documents through the
// cache and parses their frontmatter.
package document

import (
	"context"
	"errors"
	"strings"

	"github.com/Sternrassler/knowledge-portal/pkg/cache"
	"github.com/Sternrassler/knowledge-portal/pkg/client"
	"github.com/Sternrassler/knowledge-portal/pkg/frontmatter"
	"github.com/rs/zerolog"
)

// errAbsent marks a path that has no file content. It is never cached.
var errAbsent = errors.New("document absent")

// BlobFetcher fetches the content of a single path.
type BlobFetcher interface {
	FetchBlob(ctx context.Context, path string) client.Result[client.Blob]
}

// Document is a parsed markdown document.
type Document struct {
	Path     string               `json:"path"`
	Metadata frontmatter.Metadata `json:"metadata"`
	Body     string               `json:"body"`

	// MetadataErr is set when the frontmatter did not parse. Metadata then
	// holds the placeholder title and status and Body the raw text.
	MetadataErr error `json:"-"`
}

// HasMetadataError reports whether the frontmatter failed to parse.
func (d Document) HasMetadataError() bool {
	return d.MetadataErr != nil
}

// Title returns the title from the metadata, or the file name without the
// extension.
func (d Document) Title() string {
	if title := d.Metadata.Get(frontmatter.KeyTitle); !title.IsAbsent() && title.String() != "" {
		return title.String()
	}
	name := d.Path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".md")
}

// Fetcher reads raw document content through the cache.
type Fetcher struct {
	blobs  BlobFetcher
	loader *cache.Loader[string]
	logger zerolog.Logger
}

// NewFetcher creates a fetcher caching raw content in store.
func NewFetcher(blobs BlobFetcher, store cache.Store[string], logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		blobs:  blobs,
		loader: cache.NewLoader(store),
		logger: logger.With().Str("component", "document").Logger(),
	}
}

// Raw returns the raw content of the file at path. Directories, missing
// paths and remote failures are absent; only a configuration error is
// returned.
func (f *Fetcher) Raw(ctx context.Context, path string) (string, bool, error) {
	path = strings.Trim(path, "/")

	content, err := f.loader.Load(ctx, cache.FileKey(path), func(ctx context.Context) (string, error) {
		res := f.blobs.FetchBlob(ctx, path)

		switch res.Outcome {
		case client.OutcomeSuccess:
			if res.Value.Kind != client.KindFile {
				f.logger.Debug().Str("path", path).Str("kind", res.Value.Kind).Msg("Path is not a file")
				return "", errAbsent
			}
			return res.Value.Content, nil
		case client.OutcomeNotFound:
			return "", errAbsent
		case client.OutcomeConfigurationError:
			return "", res.Err
		default:
			f.logger.Warn().
				Err(res.Err).
				Str("path", path).
				Str("outcome", res.Outcome.String()).
				Msg("Fetching document failed")
			return "", errAbsent
		}
	})
	if err != nil {
		if errors.Is(err, errAbsent) {
			return "", false, nil
		}
		return "", false, err
	}
	return content, true, nil
}

// Get returns the parsed document at path. Malformed frontmatter does not
// fail the document.
func (f *Fetcher) Get(ctx context.Context, path string) (Document, bool, error) {
	path = strings.Trim(path, "/")

	raw, ok, err := f.Raw(ctx, path)
	if err != nil || !ok {
		return Document{}, false, err
	}

	matter, parseErr := frontmatter.Parse(raw)
	if parseErr != nil {
		f.logger.Warn().Err(parseErr).Str("path", path).Msg("Frontmatter did not parse, showing raw content")
	}

	return Document{
		Path:        path,
		Metadata:    matter.Metadata,
		Body:        matter.Body,
		MetadataErr: parseErr,
	}, true, nil
}
