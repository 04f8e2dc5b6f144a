package cache

import (
	"context"
	"sync"
)

// Memory is an in-process Store.
// It has no capacity bound; expired entries are dropped when read.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	opts    options
}

// NewMemory creates an empty in-memory store.
func NewMemory[V any](opts ...Option) *Memory[V] {
	return &Memory[V]{
		entries: make(map[string]Entry[V]),
		opts:    buildOptions(opts),
	}
}

// Get returns the value stored under key while it is not expired.
func (m *Memory[V]) Get(_ context.Context, key Key) (V, bool) {
	var zero V
	k := key.String()
	now := m.opts.clock()

	m.mu.RLock()
	entry, ok := m.entries[k]
	m.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(layerMemory, string(key.Namespace)).Inc()
		return zero, false
	}

	if entry.IsExpired(now) {
		m.mu.Lock()
		// A concurrent Set may have refreshed the entry meanwhile.
		if current, ok := m.entries[k]; ok && current.IsExpired(now) {
			delete(m.entries, k)
		}
		m.mu.Unlock()

		CacheMisses.WithLabelValues(layerMemory, string(key.Namespace)).Inc()
		m.opts.logger.Debug().Str("key", k).Msg("Cache entry expired")
		return zero, false
	}

	CacheHits.WithLabelValues(layerMemory, string(key.Namespace)).Inc()
	return entry.Value, true
}

// Set stores value under key until now + TTL.
func (m *Memory[V]) Set(_ context.Context, key Key, value V) {
	entry := Entry[V]{
		Value:     value,
		ExpiresAt: m.opts.clock().Add(m.opts.ttl),
	}

	m.mu.Lock()
	m.entries[key.String()] = entry
	m.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
