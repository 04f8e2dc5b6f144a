package cache

import (
	"time"
)

// DefaultTTL is how long a stored value stays readable.
const DefaultTTL = 5 * time.Minute

// Clock returns the current time. Stores read it on every Get and Set so
// tests can move time forward deterministically.
type Clock func() time.Time

// Entry is a stored value together with its expiry.
// Entries never leave a store; callers only see the value.
type Entry[V any] struct {
	// Value is the cached value
	Value V `json:"value"`

	// ExpiresAt is the first instant at which the entry is no longer readable
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the entry is not readable at now.
func (e *Entry[V]) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// TTL returns the time left until expiration.
// Returns 0 if already expired.
func (e *Entry[V]) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
