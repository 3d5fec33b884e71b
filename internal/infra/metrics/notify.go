package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Redemption notices by channel and result.",
	},
	[]string{"channel", "result"}, // result: 'sent', 'failed', 'skipped'
)

func IncNotification(channel, result string) {
	notificationsTotal.WithLabelValues(norm(channel), norm(result)).Inc()
}
