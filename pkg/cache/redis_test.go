package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type redisItem struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// setupTestRedis starts an in-memory Redis server for unit tests.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
	})

	return server, client
}

func TestNewRedis_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedis should panic with nil redis client")
		}
	}()
	NewRedis[string](nil)
}

func TestRedis_SetAndGet(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedis[[]redisItem](client)
	ctx := context.Background()

	want := []redisItem{{Path: "doc1.md", SHA: "abc123"}, {Path: "folder/doc2.md", SHA: "def456"}}
	store.Set(ctx, TreeKey("main"), want)

	got, ok := store.Get(ctx, TreeKey("main"))
	if !ok {
		t.Fatal("Get after Set returned a miss")
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Get() = %v, want %v", got, want)
	}
}

func TestRedis_KeyPrefix(t *testing.T) {
	server, client := setupTestRedis(t)
	store := NewRedis[string](client, WithKeyPrefix("portal:acme/docs@main"))
	ctx := context.Background()

	store.Set(ctx, FileKey("a.md"), "# A")

	if !server.Exists("portal:acme/docs@main:file:a.md") {
		t.Errorf("expected prefixed key, keys = %v", server.Keys())
	}
}

func TestRedis_ServerSideTTL(t *testing.T) {
	server, client := setupTestRedis(t)
	store := NewRedis[string](client, WithTTL(time.Minute))
	ctx := context.Background()

	store.Set(ctx, FileKey("a.md"), "# A")

	if ttl := server.TTL("file:a.md"); ttl != time.Minute {
		t.Errorf("redis TTL = %v, want %v", ttl, time.Minute)
	}

	server.FastForward(time.Minute)
	if _, ok := store.Get(ctx, FileKey("a.md")); ok {
		t.Error("entry should be gone after redis expired it")
	}
}

func TestRedis_ClockExpiry(t *testing.T) {
	clock := newFakeClock()
	_, client := setupTestRedis(t)
	store := NewRedis[string](client, WithClock(clock.Now))
	ctx := context.Background()

	store.Set(ctx, FileKey("a.md"), "# A")
	clock.Advance(DefaultTTL)

	if _, ok := store.Get(ctx, FileKey("a.md")); ok {
		t.Error("entry should be absent once the clock passed ExpiresAt")
	}
}

func TestRedis_CorruptEntryIsMiss(t *testing.T) {
	server, client := setupTestRedis(t)
	store := NewRedis[string](client)

	if err := server.Set("file:a.md", "garbage"); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	if _, ok := store.Get(context.Background(), FileKey("a.md")); ok {
		t.Error("corrupt entry should be a miss")
	}
	if server.Exists("file:a.md") {
		t.Error("corrupt entry should be deleted")
	}
}

func TestRedis_BackendDownNeverFails(t *testing.T) {
	server, client := setupTestRedis(t)
	store := NewRedis[string](client)
	ctx := context.Background()

	server.Close()

	store.Set(ctx, FileKey("a.md"), "# A")
	if _, ok := store.Get(ctx, FileKey("a.md")); ok {
		t.Error("Get against a closed server should be a miss")
	}
}

func TestRedis_CompressedRoundTrip(t *testing.T) {
	_, client := setupTestRedis(t)
	codec, err := NewCodec(true)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	defer codec.Close()

	store := NewRedis[[]string](client, WithCodec(codec))
	ctx := context.Background()

	paths := repeatPaths(300)
	store.Set(ctx, GoldenKey(), paths)

	got, ok := store.Get(ctx, GoldenKey())
	if !ok {
		t.Fatal("Get after Set returned a miss")
	}
	if len(got) != len(paths) {
		t.Errorf("Get() returned %d paths, want %d", len(got), len(paths))
	}
}
