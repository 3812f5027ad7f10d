package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts reads against the public stats cache.
type CacheMetrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Errors        prometheus.Counter
	Invalidations prometheus.Counter
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats_cache",
			Name:      "hits_total",
			Help:      "Total number of stats cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats_cache",
			Name:      "misses_total",
			Help:      "Total number of stats cache misses, including reads that failed.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats_cache",
			Name:      "errors_total",
			Help:      "Total number of stats cache operations that failed.",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats_cache",
			Name:      "invalidations_total",
			Help:      "Total number of stats cache invalidations.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Errors, m.Invalidations)
	return m
}
