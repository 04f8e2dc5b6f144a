// Package ratelimit tracks the GitHub REST API rate-limit budget and gates
// requests once it is exhausted. It reads the X-RateLimit-Limit,
// X-RateLimit-Remaining and X-RateLimit-Reset headers of every response.
package ratelimit

import (
	"time"
)

// RedisKeyState is the Redis key of the shared rate-limit state.
const RedisKeyState = "portal:rate_limit:state"

// Window is the length of a GitHub rate limit window. A state not updated
// for longer no longer describes the current budget.
const Window = time.Hour

// WarningFraction is the share of the hourly budget below which the tracker
// logs warnings.
const WarningFraction = 0.1

// State represents the current rate-limit budget of the configured token.
// This state may be shared across instances via Redis.
type State struct {
	// Limit is the size of the budget per window (X-RateLimit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (X-RateLimit-Reset, unix seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true while Remaining is above the warning level.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge at now.
func (s *State) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastUpdate) > maxAge
}

// Exhausted returns true if no requests are left and the window has not
// reset yet at now.
func (s *State) Exhausted(now time.Time) bool {
	return s.Remaining <= 0 && now.Before(s.ResetAt)
}

// NeedsWarning returns true if the budget is below WarningFraction.
func (s *State) NeedsWarning() bool {
	if s.Limit <= 0 {
		return false
	}
	return float64(s.Remaining) < float64(s.Limit)*WarningFraction
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining > 0 && !s.NeedsWarning()
}
