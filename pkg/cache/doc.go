// Package cache provides the time-to-live cache shared by the portal resolvers.
//
// Every value the portal derives from the remote repository (the recursive
// tree, raw documents, directory listings, the golden set) is stored for a
// fixed TTL (DefaultTTL, 5 minutes) and recomputed afterwards. There is no
// capacity bound, no LRU and no invalidation API: a change in the remote
// repository becomes visible once the TTL has elapsed.
//
// # Basic Usage
//
//	store := cache.NewMemory[[]string](cache.WithTTL(5 * time.Minute))
//
//	store.Set(ctx, cache.GoldenKey(), []string{"a.md"})
//	files, ok := store.Get(ctx, cache.GoldenKey())
//
// # Loading
//
// Loader reads through a store and computes missing values. Concurrent
// misses on the same key run the LoadFunc once:
//
//	loader := cache.NewLoader[string](store)
//	content, err := loader.Load(ctx, cache.FileKey("a.md"), fetch)
//
// # Shared Backend
//
// Redis stores entries as JSON (optionally zstd-compressed, see Codec) so
// several portal instances can share one cache:
//
//	codec, _ := cache.NewCodec(true)
//	store := cache.NewRedis[[]tree.Item](redisClient,
//		cache.WithCodec(codec),
//		cache.WithKeyPrefix("portal:owner/repo@main"),
//	)
//
// # Keys
//
// Keys are namespaced by the kind of query:
//
//   - tree:<branch>  - resolved recursive listing
//   - file:<path>    - raw document content
//   - dir[:<prefix>] - synthesized directory listing
//   - golden         - resolved golden set
//
// # Metrics
//
//   - portal_cache_hits_total{layer,namespace}
//   - portal_cache_misses_total{layer,namespace}
//   - portal_cache_size_bytes{layer="redis"}
//   - portal_cache_errors_total{operation}
//   - portal_cache_coalesced_total{namespace}
package cache
