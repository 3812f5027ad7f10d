package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisMetrics tracks emotion analyses performed by the service.
type AnalysisMetrics struct {
	AnalysesTotal *prometheus.CounterVec
	Confidence    prometheus.Histogram
	TextLength    prometheus.Histogram
	Failures      *prometheus.CounterVec
}

func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of stored analyses, by primary emotion.",
		}, []string{"emotion"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_confidence",
			Help:      "Confidence of the primary emotion per analysis.",
			Buckets:   []float64{0.15, 0.2, 0.25, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		TextLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_text_runes",
			Help:      "Length of analyzed text in runes.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 6),
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Total number of analyses that could not be stored, by stage.",
		}, []string{"stage"}),
	}

	reg.MustRegister(m.AnalysesTotal, m.Confidence, m.TextLength, m.Failures)
	return m
}

// ObserveAnalysis records one stored analysis.
func (m *AnalysisMetrics) ObserveAnalysis(emotion string, confidence float64, runes int) {
	m.AnalysesTotal.WithLabelValues(emotion).Inc()
	m.Confidence.Observe(confidence)
	m.TextLength.Observe(float64(runes))
}

// ObserveFailure records an analysis that could not be completed at stage.
func (m *AnalysisMetrics) ObserveFailure(stage string) {
	m.Failures.WithLabelValues(stage).Inc()
}
