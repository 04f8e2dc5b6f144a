package portal

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/knowledge-portal/pkg/cache"
	"github.com/Sternrassler/knowledge-portal/pkg/client"
	"github.com/Sternrassler/knowledge-portal/pkg/golden"
	"github.com/redis/go-redis/v9"
)

// Backend selects where cached values live.
type Backend string

const (
	// BackendMemory keeps the cache in process.
	BackendMemory Backend = "memory"
	// BackendRedis shares the cache and the rate limit state through Redis.
	BackendRedis Backend = "redis"
)

// Config holds the portal configuration.
type Config struct {
	// Client is the GitHub repository and credential configuration.
	Client client.Config

	// Cache
	Backend  Backend
	Redis    *redis.Client // required for BackendRedis
	CacheTTL time.Duration
	Compress bool // zstd-compress values stored in Redis

	// ManifestPath is the repository path of the golden manifest.
	ManifestPath string

	// WebURL and RawURL are the bases of the links to GitHub.
	WebURL string
	RawURL string

	// HTTPClient overrides the client used for GitHub requests (tests).
	HTTPClient *http.Client

	// Clock overrides time.Now for cache expiry (tests).
	Clock cache.Clock
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Client:       client.DefaultConfig(),
		Backend:      BackendMemory,
		CacheTTL:     cache.DefaultTTL,
		ManifestPath: golden.DefaultManifestPath,
		WebURL:       "https://github.com",
		RawURL:       "https://raw.githubusercontent.com",
	}
}

// Validate checks the cache settings. The token is not checked here:
// its absence is reported by every call that needs the network.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, "":
	case BackendRedis:
		if c.Redis == nil {
			return fmt.Errorf("redis client is required for the %q cache backend", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Backend)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative (got %s)", c.CacheTTL)
	}
	return nil
}
