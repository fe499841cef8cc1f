package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"caretrust-hq/minerva/pkg/config"
)

// BiasMetrics tracks bias monitoring activity.
//
// Metrics:
//   - minerva_governance_bias_violations_total: threshold violations
//   - minerva_governance_bias_analyses_total: full analysis runs
//   - minerva_governance_bias_comparisons_total: pairwise comparisons run
type BiasMetrics struct {
	violationsTotal  *prometheus.CounterVec
	analysesTotal    prometheus.Counter
	comparisonsTotal prometheus.Counter
}

// NewBiasMetrics creates and registers bias metrics with the provided
// registry.
func NewBiasMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BiasMetrics {
	bm := &BiasMetrics{
		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "bias_violations_total",
				Help:      "Total disparate impact threshold violations",
			},
			[]string{"agent_type", "dimension"},
		),

		analysesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "bias_analyses_total",
				Help:      "Total full bias analysis runs",
			},
		),

		comparisonsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "bias_comparisons_total",
				Help:      "Total pairwise disparate impact comparisons",
			},
		),
	}

	registry.MustRegister(
		bm.violationsTotal,
		bm.analysesTotal,
		bm.comparisonsTotal,
	)

	return bm
}

// RecordViolation records one threshold violation.
func (bm *BiasMetrics) RecordViolation(agentType, dimension string) {
	bm.violationsTotal.WithLabelValues(agentType, dimension).Inc()
}

// RecordAnalysis records a completed full analysis run.
func (bm *BiasMetrics) RecordAnalysis(analyses, violations int) {
	bm.analysesTotal.Inc()
	bm.comparisonsTotal.Add(float64(analyses))
}
