package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		redemptionsTotal,
		redemptionDiscountTotal,
		redemptionDuration,
		pinAttemptsThrottled,
	)
}

var (
	// outcome: success | not_found | expired | inactive | cap_exceeded | invalidamount | invalidpercent | error
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pin_redemptions_total",
			Help: "PIN redemption attempts by outcome.",
		},
		[]string{"outcome"},
	)

	redemptionDiscountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pin_redemption_discount_total",
			Help: "Sum of granted discount amounts by currency.",
		},
		[]string{"currency"},
	)

	redemptionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pin_redemption_duration_seconds",
			Help:    "Duration of a redemption attempt in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"outcome"},
	)

	pinAttemptsThrottled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pin_attempts_throttled_total",
			Help: "PIN attempts rejected by the per-provider rate limiter.",
		},
	)
)

func ObserveRedemption(outcome string, took time.Duration) {
	o := norm(outcome)
	redemptionsTotal.WithLabelValues(o).Inc()
	redemptionDuration.WithLabelValues(o).Observe(took.Seconds())
}

func AddDiscountGranted(currency string, amount float64) {
	redemptionDiscountTotal.WithLabelValues(norm(currency)).Add(amount)
}

func IncPinThrottled() { pinAttemptsThrottled.Inc() }
