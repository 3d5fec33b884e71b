package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo)
}

// buildInfo is always 1; the labels identify the running binary.
var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "daleel_build_info",
		Help: "Version and commit of the running redemption service.",
	},
	[]string{"version", "commit"},
)

// SetBuildInfo publishes the version and commit injected at link time.
func SetBuildInfo(version, commit string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit).Set(1)
}
