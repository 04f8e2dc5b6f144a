package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store layers used as metric labels.
const (
	layerMemory = "memory"
	layerRedis  = "redis"
)

var (
	// CacheHits tracks cache hits by layer and namespace
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_cache_hits_total",
			Help: "Total number of portal cache hits",
		},
		[]string{"layer", "namespace"},
	)

	// CacheMisses tracks cache misses (absent or expired) by layer and namespace
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_cache_misses_total",
			Help: "Total number of portal cache misses",
		},
		[]string{"layer", "namespace"},
	)

	// CacheSize tracks bytes written to shared layers
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portal_cache_size_bytes",
			Help: "Bytes written to the shared portal cache",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheErrors tracks backend operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)

	// CacheCoalesced tracks loads that shared an in-flight computation
	CacheCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_cache_coalesced_total",
			Help: "Total number of cache loads served by a concurrent in-flight load",
		},
		[]string{"namespace"},
	)
)
