package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/knowledge-portal/pkg/portal"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// loadConfig builds the portal configuration from viper. The Redis client
// is only created for the redis backend; the caller closes it.
func loadConfig() (portal.Config, error) {
	cfg := portal.DefaultConfig()

	cfg.Client.Owner = viper.GetString("repo_owner")
	cfg.Client.Repo = viper.GetString("repo_name")
	cfg.Client.Branch = viper.GetString("repo_branch")
	cfg.Client.Token = viper.GetString("github_token")
	if apiURL := viper.GetString("github_api_url"); apiURL != "" {
		cfg.Client.BaseURL = apiURL
	}

	ttl, err := parseTTL(viper.GetString("cache_ttl"))
	if err != nil {
		return portal.Config{}, err
	}
	cfg.CacheTTL = ttl
	cfg.Compress = viper.GetBool("cache_compress")
	cfg.ManifestPath = viper.GetString("manifest_path")

	cfg.Backend = portal.Backend(strings.ToLower(viper.GetString("cache_backend")))
	if cfg.Backend == portal.BackendRedis {
		rdb, err := newRedisClient(viper.GetString("redis_url"))
		if err != nil {
			return portal.Config{}, err
		}
		cfg.Redis = rdb
	}

	if err := cfg.Validate(); err != nil {
		if cfg.Redis != nil {
			cfg.Redis.Close()
		}
		return portal.Config{}, err
	}
	return cfg, nil
}

// parseTTL accepts a Go duration ("5m") or a number of seconds ("300").
func parseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if seconds, err := strconv.Atoi(s); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid CACHE_TTL %q: want a duration such as 5m or a number of seconds", s)
}

// newRedisClient accepts a redis:// URL or a plain host:port address.
func newRedisClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// openPortal creates the portal from the loaded configuration and a
// cleanup function that closes it and its Redis client.
func openPortal(ctx context.Context) (*portal.Portal, *redis.Client, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Redis != nil {
		if err := cfg.Redis.Ping(ctx).Err(); err != nil {
			cfg.Redis.Close()
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
	}

	p, err := portal.New(cfg)
	if err != nil {
		if cfg.Redis != nil {
			cfg.Redis.Close()
		}
		return nil, nil, nil, err
	}

	cleanup := func() {
		p.Close()
		if cfg.Redis != nil {
			cfg.Redis.Close()
		}
	}
	return p, cfg.Redis, cleanup, nil
}
