package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues collectors from each file's init for MustRegister.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister publishes every queued collector on the default registry.
// Later calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() { MustRegisterOn(prometheus.DefaultRegisterer) })
}

// MustRegisterOn publishes every queued collector on reg and panics on a
// duplicate, as prometheus.MustRegister does.
func MustRegisterOn(reg prometheus.Registerer) {
	reg.MustRegister(pending...)
}

// norm lowercases and trims a label value so callers can pass failure codes
// and currency codes as they are.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
