package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestTracker(store Store) *Tracker {
	tracker := NewTracker(store, zerolog.Nop())
	tracker.now = func() time.Time { return testNow }
	return tracker
}

func rateHeaders(limit, remaining int, reset time.Time) http.Header {
	h := http.Header{}
	h.Set(HeaderLimit, strconv.Itoa(limit))
	h.Set(HeaderRemaining, strconv.Itoa(remaining))
	h.Set(HeaderReset, strconv.FormatInt(reset.Unix(), 10))
	return h
}

func TestUpdateFromHeaders_ValidHeaders(t *testing.T) {
	tests := []struct {
		name            string
		limit           int
		remaining       int
		expectedHealthy bool
	}{
		{name: "healthy state", limit: 5000, remaining: 4999, expectedHealthy: true},
		{name: "warning state", limit: 5000, remaining: 100, expectedHealthy: false},
		{name: "exhausted state", limit: 60, remaining: 0, expectedHealthy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker(NewMemoryStore())
			ctx := context.Background()

			reset := testNow.Add(30 * time.Minute)
			if err := tracker.UpdateFromHeaders(ctx, rateHeaders(tt.limit, tt.remaining, reset)); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState() error = %v", err)
			}
			if state.Remaining != tt.remaining {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.remaining)
			}
			if state.Limit != tt.limit {
				t.Errorf("Limit = %d, want %d", state.Limit, tt.limit)
			}
			if !state.ResetAt.Equal(reset.Truncate(time.Second)) {
				t.Errorf("ResetAt = %v, want %v", state.ResetAt, reset)
			}
			if state.IsHealthy != tt.expectedHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expectedHealthy)
			}
		})
	}
}

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
	}{
		{
			name:    "non numeric remaining",
			headers: http.Header{HeaderRemaining: []string{"lots"}, HeaderReset: []string{"1700000000"}},
		},
		{
			name:    "missing reset",
			headers: http.Header{HeaderRemaining: []string{"10"}},
		},
		{
			name:    "non numeric reset",
			headers: http.Header{HeaderRemaining: []string{"10"}, HeaderReset: []string{"soon"}},
		},
		{
			name:    "non numeric limit",
			headers: http.Header{HeaderRemaining: []string{"10"}, HeaderLimit: []string{"x"}, HeaderReset: []string{"1700000000"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker(NewMemoryStore())
			if err := tracker.UpdateFromHeaders(context.Background(), tt.headers); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestUpdateFromHeaders_NoHeaders(t *testing.T) {
	store := NewMemoryStore()
	tracker := newTestTracker(store)

	if err := tracker.UpdateFromHeaders(context.Background(), http.Header{}); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	if state, _ := store.Load(context.Background()); state != nil {
		t.Errorf("no state should be saved, got %+v", state)
	}
}

func TestShouldAllowRequest(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		reset     time.Time
		want      bool
	}{
		{name: "healthy", remaining: 4000, reset: testNow.Add(time.Hour), want: true},
		{name: "low but not exhausted", remaining: 1, reset: testNow.Add(time.Hour), want: true},
		{name: "exhausted", remaining: 0, reset: testNow.Add(time.Hour), want: false},
		{name: "exhausted window over", remaining: 0, reset: testNow.Add(-time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTestTracker(NewMemoryStore())
			ctx := context.Background()

			if err := tracker.UpdateFromHeaders(ctx, rateHeaders(5000, tt.remaining, tt.reset)); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			allowed, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.want {
				t.Errorf("ShouldAllowRequest() = %v, want %v", allowed, tt.want)
			}
		})
	}
}

func TestShouldAllowRequest_NoState(t *testing.T) {
	tracker := newTestTracker(nil)

	allowed, err := tracker.ShouldAllowRequest(context.Background())
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("requests should be allowed before any response was observed")
	}
}

func TestRedisStore_SharedState(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()
	ctx := context.Background()

	writer := newTestTracker(NewRedisStore(client))
	reader := newTestTracker(NewRedisStore(client))

	if err := writer.UpdateFromHeaders(ctx, rateHeaders(5000, 0, testNow.Add(time.Hour))); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := reader.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("a second instance should see the exhausted budget")
	}
	if !server.Exists(RedisKeyState) {
		t.Errorf("state key %q not written", RedisKeyState)
	}
}

func TestRedisStore_CorruptState(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	if err := server.Set(RedisKeyState, "{"); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	tracker := newTestTracker(NewRedisStore(client))
	if _, err := tracker.ShouldAllowRequest(context.Background()); err == nil {
		t.Error("expected an error for a corrupt state")
	}
}
