package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(healthCheckUp) }

var healthCheckUp = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "health_check_up",
		Help: "Last observed health per dependency (1 healthy, 0.5 warning, 0 unhealthy).",
	},
	[]string{"check"},
)

func SetHealthCheck(check string, value float64) {
	healthCheckUp.WithLabelValues(norm(check)).Set(value)
}
