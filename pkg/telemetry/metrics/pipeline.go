package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"caretrust-hq/minerva/pkg/config"
)

// PipelineMetrics tracks governed action processing.
//
// Metrics:
//   - minerva_governance_actions_total: completed passes by agent, risk, status
//   - minerva_governance_pipeline_duration_seconds: pass duration by agent
//   - minerva_governance_denials_total: RBAC and subject access rejections
//   - minerva_governance_escalations_total: triggered escalations by trigger
type PipelineMetrics struct {
	actionsTotal     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	denialsTotal     *prometheus.CounterVec
	escalationsTotal *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers pipeline metrics with the
// provided registry.
func NewPipelineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "actions_total",
				Help:      "Total governed actions processed",
			},
			[]string{"agent_type", "risk_level", "status"},
		),

		pipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_duration_seconds",
				Help:      "Duration of governance pipeline passes in seconds",
				Buckets:   cfg.PipelineDurationBuckets,
			},
			[]string{"agent_type"},
		),

		denialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "denials_total",
				Help:      "Total permission and subject access denials",
			},
			[]string{"agent_type", "kind"},
		),

		escalationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "escalations_total",
				Help:      "Total escalations by trigger type",
			},
			[]string{"trigger"},
		),
	}

	registry.MustRegister(
		pm.actionsTotal,
		pm.pipelineDuration,
		pm.denialsTotal,
		pm.escalationsTotal,
	)

	return pm
}

// RecordAction records one completed pipeline pass.
func (pm *PipelineMetrics) RecordAction(agentType, riskLevel, status string, duration time.Duration) {
	pm.actionsTotal.WithLabelValues(agentType, riskLevel, status).Inc()
	pm.pipelineDuration.WithLabelValues(agentType).Observe(duration.Seconds())
}

// RecordDenial records one rejection. Kind distinguishes "permission"
// from "subject_access".
func (pm *PipelineMetrics) RecordDenial(agentType, kind string) {
	pm.denialsTotal.WithLabelValues(agentType, kind).Inc()
}

// RecordEscalation records one triggered escalation.
func (pm *PipelineMetrics) RecordEscalation(trigger string) {
	pm.escalationsTotal.WithLabelValues(trigger).Inc()
}
