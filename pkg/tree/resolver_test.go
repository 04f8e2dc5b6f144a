package tree

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/knowledge-portal/pkg/cache"
	"github.com/Sternrassler/knowledge-portal/pkg/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher returns queued results and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	results []client.Result[[]client.TreeEntry]
	calls   int
}

func (f *fakeFetcher) FetchTree(_ context.Context, _ string) client.Result[[]client.TreeEntry] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func success(entries []client.TreeEntry) client.Result[[]client.TreeEntry] {
	return client.Result[[]client.TreeEntry]{Value: entries, Outcome: client.OutcomeSuccess}
}

func serverError() client.Result[[]client.TreeEntry] {
	return client.Result[[]client.TreeEntry]{
		Outcome: client.OutcomeRemoteError,
		Err:     &client.RemoteError{StatusCode: 500, Status: "Internal Server Error"},
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestResolver(fetcher Fetcher) (*Resolver, *testClock) {
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemory[[]Item](cache.WithClock(clock.Now))
	return NewResolver(fetcher, store, "main", zerolog.Nop()), clock
}

func TestResolver_Resolve(t *testing.T) {
	fetcher := &fakeFetcher{results: []client.Result[[]client.TreeEntry]{
		success(blobs("doc1.md", "folder/doc2.md", "README.txt")),
	}}
	r, _ := newTestResolver(fetcher)

	items, err := r.Resolve(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "doc1.md", items[0].Path)
	assert.Equal(t, "folder/doc2.md", items[1].Path)
	assert.Equal(t, "doc2.md", items[1].Name)
}

func TestResolver_RemoteErrorIsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		result client.Result[[]client.TreeEntry]
	}{
		{name: "server error", result: serverError()},
		{name: "not found", result: client.Result[[]client.TreeEntry]{Outcome: client.OutcomeNotFound}},
		{
			name: "transport error",
			result: client.Result[[]client.TreeEntry]{
				Outcome: client.OutcomeRemoteError,
				Err:     errors.New("dial tcp: connection refused"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResolver(&fakeFetcher{results: []client.Result[[]client.TreeEntry]{tt.result}})

			items, err := r.Resolve(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)

			children, err := r.ListChildren(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, children)
		})
	}
}

func TestResolver_ConfigurationErrorPropagates(t *testing.T) {
	fetcher := &fakeFetcher{results: []client.Result[[]client.TreeEntry]{{
		Outcome: client.OutcomeConfigurationError,
		Err:     &client.ConfigurationError{Setting: "GITHUB_TOKEN", Err: client.ErrMissingCredential},
	}}}
	r, _ := newTestResolver(fetcher)

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, client.ErrMissingCredential)

	_, err = r.ListChildren(context.Background(), "guides")
	assert.ErrorIs(t, err, client.ErrMissingCredential)
}

func TestResolver_CachesUntilTTL(t *testing.T) {
	fetcher := &fakeFetcher{results: []client.Result[[]client.TreeEntry]{
		success(blobs("a.md")),
		success(blobs("a.md", "b.md")),
	}}
	r, clock := newTestResolver(fetcher)
	ctx := context.Background()

	first, err := r.Resolve(ctx)
	require.NoError(t, err)
	clock.Advance(cache.DefaultTTL - time.Second)
	second, err := r.Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.Calls())
	assert.Equal(t, first, second)

	clock.Advance(time.Second)
	third, err := r.Resolve(ctx)
	require.NoError(t, err)
	_, err = r.Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.Calls())
	assert.Len(t, third, 2)
}

func TestResolver_DegradedTreeIsNotCached(t *testing.T) {
	fetcher := &fakeFetcher{results: []client.Result[[]client.TreeEntry]{
		serverError(),
		success(blobs("guides/a.md")),
	}}
	r, _ := newTestResolver(fetcher)
	ctx := context.Background()

	children, err := r.ListChildren(ctx, "guides")
	require.NoError(t, err)
	assert.Empty(t, children)

	children, err = r.ListChildren(ctx, "guides")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "guides/a.md", children[0].Path)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestResolver_ListChildrenCachedPerPrefix(t *testing.T) {
	fetcher := &fakeFetcher{results: []client.Result[[]client.TreeEntry]{
		success(blobs("doc1.md", "folder/doc2.md")),
	}}
	r, _ := newTestResolver(fetcher)
	ctx := context.Background()

	root, err := r.ListChildren(ctx, "/")
	require.NoError(t, err)
	folder, err := r.ListChildren(ctx, "folder/")
	require.NoError(t, err)
	again, err := r.ListChildren(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, root, again)
	require.Len(t, folder, 1)
	assert.Equal(t, "folder/doc2.md", folder[0].Path)
	assert.Equal(t, 1, fetcher.Calls())
}

func TestResolver_CallersGetCopies(t *testing.T) {
	fetcher := &fakeFetcher{results: []client.Result[[]client.TreeEntry]{
		success(blobs("a.md", "b.md")),
	}}
	r, _ := newTestResolver(fetcher)
	ctx := context.Background()

	items, err := r.Resolve(ctx)
	require.NoError(t, err)
	items[0].Path = "mutated.md"

	again, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a.md", again[0].Path)
}

func TestResolver_ConcurrentMissesFetchOnce(t *testing.T) {
	release := make(chan struct{})
	fetcher := &blockingFetcher{release: release, entries: blobs("a.md")}
	r, _ := newTestResolver(fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := r.Resolve(context.Background())
			assert.NoError(t, err)
			assert.Len(t, items, 1)
		}()
	}

	// Let the goroutines pile up on the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, fetcher.Calls())
}

type blockingFetcher struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	entries []client.TreeEntry
}

func (f *blockingFetcher) FetchTree(_ context.Context, _ string) client.Result[[]client.TreeEntry] {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	<-f.release
	return success(f.entries)
}

func (f *blockingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
