package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestsTotal, httpRequestDuration) }

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		},
		[]string{"route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP handler latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func ObserveHTTP(route string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(took.Seconds())
}
