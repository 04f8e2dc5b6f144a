package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Store is a keyed TTL store.
//
// Get reports false for absent and expired keys. Set always overwrites and
// starts a fresh TTL. Neither operation fails: backend problems are logged
// and behave like a miss or a dropped write.
type Store[V any] interface {
	Get(ctx context.Context, key Key) (V, bool)
	Set(ctx context.Context, key Key, value V)
}

// Option configures a store.
type Option func(*options)

type options struct {
	ttl       time.Duration
	clock     Clock
	logger    zerolog.Logger
	keyPrefix string
	codec     *Codec
}

func defaultOptions() options {
	return options{
		ttl:    DefaultTTL,
		clock:  time.Now,
		logger: zerolog.Nop(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger used for backend diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKeyPrefix scopes all keys of a shared backend, e.g. by repository.
// Only the Redis store uses it.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithCodec sets the payload codec of the Redis store.
func WithCodec(codec *Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}
