// Package metrics wires a small set of Prometheus counters for the
// discovery pipeline, grounded on
// APTlantis-Mirror-Crates/internal/downloader/downloader.go's
// prometheus.NewCounterVec/NewHistogram/promhttp.Handler pattern — the
// same library shows up independently in lueurxax-TelegramDigestBot,
// caddy-language-server, and vjache-cie, a corpus-wide signal that this is
// the ecosystem's default metrics backend. This remains a minimal counter
// set, not a dashboard/alerting system (out of scope per spec §1).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups the discovery pipeline's counters under one Prometheus
// registerer so cmd/autodiscover can mount them on an optional /metrics
// endpoint without reaching for global state.
type Registry struct {
	reg *prometheus.Registry

	DiscoveryAttempts *prometheus.CounterVec
	MirrorBytes       prometheus.Counter
	MirrorDuration    prometheus.Histogram
	HTTPRetries       prometheus.Counter
}

// New builds a fresh Registry with all counters registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		DiscoveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autodiscovery_attempts_total",
			Help: "Discovery attempts by source key and outcome.",
		}, []string{"key", "outcome"}),
		MirrorBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autodiscovery_mirror_bytes_total",
			Help: "Total bytes written to the local mirror.",
		}),
		MirrorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "autodiscovery_mirror_duration_seconds",
			Help:    "Time spent streaming a candidate to the mirror.",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autodiscovery_http_retries_total",
			Help: "Total HTTP retry attempts across all calls.",
		}),
	}
	reg.MustRegister(r.DiscoveryAttempts, r.MirrorBytes, r.MirrorDuration, r.HTTPRetries)
	return r
}

// Handler returns the HTTP handler for the registry's /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
