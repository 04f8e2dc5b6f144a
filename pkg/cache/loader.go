package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// LoadFunc computes the value for a missing key.
// A non-nil error skips the Set and is returned to every waiting caller.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Loader reads through a Store and collapses concurrent misses on the same
// key into a single LoadFunc call.
type Loader[V any] struct {
	store Store[V]
	group singleflight.Group
}

// NewLoader wraps store.
func NewLoader[V any](store Store[V]) *Loader[V] {
	return &Loader[V]{store: store}
}

// Load returns the cached value for key, computing and storing it with fn on
// a miss. fn runs detached from ctx cancellation: the flight is shared by
// every waiter and its result is cached, so one caller going away must not
// truncate it.
func (l *Loader[V]) Load(ctx context.Context, key Key, fn LoadFunc[V]) (V, error) {
	if value, ok := l.store.Get(ctx, key); ok {
		return value, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	result, err, shared := l.group.Do(key.String(), func() (any, error) {
		// Another flight may have filled the key since our Get.
		if value, ok := l.store.Get(loadCtx, key); ok {
			return value, nil
		}

		value, err := fn(loadCtx)
		if err != nil {
			return value, err
		}
		l.store.Set(loadCtx, key, value)
		return value, nil
	})
	if shared {
		CacheCoalesced.WithLabelValues(string(key.Namespace)).Inc()
	}

	value, _ := result.(V)
	return value, err
}
