// Package metrics owns the Prometheus registry and the metric sets each
// adapter records into. Every set registers on an injected registry so tests
// can build isolated ones.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pscheid92/moodscope/internal/platform/version"
)

const namespace = "moodscope"

// NewRegistry returns a registry carrying runtime, process and build_info series.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newBuildInfo(version.Get()),
	)
	return reg
}

// newBuildInfo exposes the running build as a constant 1-valued gauge.
func newBuildInfo(info version.Info) prometheus.Collector {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build metadata of the running binary.",
		ConstLabels: prometheus.Labels{
			"version":    info.Version,
			"commit":     info.Commit,
			"go_version": info.GoVersion,
		},
	})
	g.Set(1)
	return g
}

// Handler serves reg in the text or OpenMetrics format. Scrape failures are
// counted on reg itself.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}
