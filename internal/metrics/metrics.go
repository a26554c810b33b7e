// Package metrics implements C8, an ambient supplement to spec.md:
// Prometheus counters/histograms for one driver run. Everything is
// registered against a private registry rather than the global default so
// that multiple drivers (e.g. in tests) never collide on collector
// registration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles a private prometheus.Registry with the collectors a
// driver run reports to.
type Registry struct {
	Registry *prometheus.Registry

	TilesProcessed      prometheus.Counter
	TilesModified       prometheus.Counter
	TilesDecodeFailures prometheus.Counter
	BatchDuration       prometheus.Histogram
}

// New builds a Registry with all collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		Registry: reg,
		TilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetslim_tiles_processed_total",
			Help: "Total number of tile rows read from the source archive.",
		}),
		TilesModified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetslim_tiles_modified_total",
			Help: "Total number of tiles rewritten with a modified layer set.",
		}),
		TilesDecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetslim_tiles_decode_failures_total",
			Help: "Total number of tiles that failed to decode and were left unchanged.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "streetslim_batch_duration_seconds",
			Help:    "Wall-clock duration of one driver batch (read, dispatch, write).",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.TilesProcessed, m.TilesModified, m.TilesDecodeFailures, m.BatchDuration)
	return m
}
