package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Redis cache lookups by cache and result (hit, miss, error).",
	},
	[]string{"cache", "result"},
)

func init() { register(cacheRequestsTotal) }

// IncCacheRequest counts one lookup in cache. An error lookup still falls
// through to the store, so it is counted apart from plain misses.
func IncCacheRequest(cache, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cache), norm(result)).Inc()
}
