// Package metrics provides the Prometheus registry and scrape handler for the
// knowledge portal.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, golden, server) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the portal.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the scrape handler for everything registered in Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - portal_rate_limit_remaining (Gauge): Requests remaining in the GitHub rate limit window
//   - portal_rate_limit_blocks_total (Counter): Requests blocked because the limit was exhausted
//   - portal_rate_limit_warnings_total (Counter): Responses that left the limit below the warning level
//
// Cache Metrics (pkg/cache):
//   - portal_cache_hits_total{layer, namespace} (Counter): Cache hits by layer and namespace (tree, file, dir, golden)
//   - portal_cache_misses_total{layer, namespace} (Counter): Absent or expired entries
//   - portal_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the shared cache
//   - portal_cache_errors_total{operation} (Counter): Backend errors (get, set, delete)
//   - portal_cache_coalesced_total{namespace} (Counter): Loads that joined an in-flight load
//
// Request Metrics (pkg/client):
//   - portal_remote_requests_total{operation, outcome} (Counter): GitHub calls by operation (fetch_tree, fetch_blob) and outcome
//   - portal_remote_request_duration_seconds{operation} (Histogram): GitHub call duration
//
// Golden Metrics (pkg/golden):
//   - portal_golden_resolutions_total{phase} (Counter): Golden set resolutions by phase (manifest, scan, degraded)
//
// HTTP Metrics (internal/server):
//   - portal_http_requests_total{route, status} (Counter): API requests served
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(portal_cache_hits_total[5m])) /
//   (sum(rate(portal_cache_hits_total[5m])) + sum(rate(portal_cache_misses_total[5m])))
//
//   # Rate Limit Headroom
//   portal_rate_limit_remaining < 100
//
//   # Remote Error Rate
//   rate(portal_remote_requests_total{outcome="remote_error"}[5m])
//
//   # P95 GitHub Latency
//   histogram_quantile(0.95, rate(portal_remote_request_duration_seconds_bucket[5m]))
//
//   # Golden manifest fallbacks
//   rate(portal_golden_resolutions_total{phase="scan"}[1h])
