package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by Redis, shared by every portal instance that
// points at the same server. Redis expires keys on its own; the entry's
// ExpiresAt is still checked on read so the injected clock stays
// authoritative.
type Redis[V any] struct {
	redis *redis.Client
	opts  options
}

// NewRedis creates a Redis-backed store.
func NewRedis[V any](redisClient *redis.Client, opts ...Option) *Redis[V] {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	o := buildOptions(opts)
	if o.codec == nil {
		o.codec = &Codec{}
	}
	return &Redis[V]{
		redis: redisClient,
		opts:  o,
	}
}

func (r *Redis[V]) redisKey(key Key) string {
	if r.opts.keyPrefix == "" {
		return key.String()
	}
	return r.opts.keyPrefix + ":" + key.String()
}

// Get retrieves a value by key.
// Backend and decoding failures count as a miss.
func (r *Redis[V]) Get(ctx context.Context, key Key) (V, bool) {
	var zero V
	redisKey := r.redisKey(key)
	ns := string(key.Namespace)

	data, err := r.redis.Get(ctx, redisKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			CacheErrors.WithLabelValues("get").Inc()
			r.opts.logger.Warn().Err(err).Str("key", redisKey).Msg("Redis get failed")
		}
		CacheMisses.WithLabelValues(layerRedis, ns).Inc()
		return zero, false
	}

	var entry Entry[V]
	if err := r.opts.codec.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		r.opts.logger.Warn().Err(err).Str("key", redisKey).Msg("Dropping undecodable cache entry")
		r.delete(ctx, redisKey)
		CacheMisses.WithLabelValues(layerRedis, ns).Inc()
		return zero, false
	}

	if entry.IsExpired(r.opts.clock()) {
		r.delete(ctx, redisKey)
		CacheMisses.WithLabelValues(layerRedis, ns).Inc()
		return zero, false
	}

	CacheHits.WithLabelValues(layerRedis, ns).Inc()
	return entry.Value, true
}

// Set stores value under key with the store TTL.
// A failed write is logged and otherwise ignored.
func (r *Redis[V]) Set(ctx context.Context, key Key, value V) {
	redisKey := r.redisKey(key)
	now := r.opts.clock()
	entry := Entry[V]{
		Value:     value,
		ExpiresAt: now.Add(r.opts.ttl),
	}

	data, err := r.opts.codec.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		r.opts.logger.Warn().Err(err).Str("key", redisKey).Msg("Encoding cache entry failed")
		return
	}

	if err := r.redis.Set(ctx, redisKey, data, entry.TTL(now)).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		r.opts.logger.Warn().Err(err).Str("key", redisKey).Msg("Redis set failed")
		return
	}

	CacheSize.WithLabelValues(layerRedis).Add(float64(len(data)))
}

func (r *Redis[V]) delete(ctx context.Context, redisKey string) {
	if err := r.redis.Del(ctx, redisKey).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		r.opts.logger.Debug().Err(err).Str("key", redisKey).Msg("Redis del failed")
	}
}
