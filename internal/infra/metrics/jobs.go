package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(workerJobsTotal) }

var workerJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_jobs_total",
		Help: "Background jobs handled by the worker pool, labeled by result.",
	},
	[]string{"result"}, // 'done', 'dropped', 'panic'
)

func IncWorkerJob(result string) {
	workerJobsTotal.WithLabelValues(norm(result)).Inc()
}
