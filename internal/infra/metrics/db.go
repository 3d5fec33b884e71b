package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolSnapshot is a point-in-time copy of the pgx pool counters.
type PoolSnapshot struct {
	Total         int32
	Idle          int32
	InUse         int32
	Max           int32
	EmptyAcquires int64
}

var (
	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Ledger connection pool by state (total, idle, in_use, max).",
		},
		[]string{"state"},
	)
	dbPoolEmptyAcquires = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_empty_acquires",
		Help: "Acquires that had to wait for a connection since the pool started.",
	})
)

func init() { register(dbPoolStats, dbPoolEmptyAcquires) }

func SetDBPoolStats(s PoolSnapshot) {
	dbPoolStats.WithLabelValues("total").Set(float64(s.Total))
	dbPoolStats.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(s.InUse))
	dbPoolStats.WithLabelValues("max").Set(float64(s.Max))
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquires))
}
