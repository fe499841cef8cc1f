package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"caretrust-hq/minerva/pkg/config"
)

// GateMetrics tracks risk gate evaluation and the approval queue.
//
// Metrics:
//   - minerva_governance_gate_decisions_total: gate outcomes by risk level
//   - minerva_governance_pending_approvals: current approval queue depth
//   - minerva_governance_approval_decisions_total: processed approve/reject calls
type GateMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	pendingApprovals prometheus.Gauge
	approvalsTotal   *prometheus.CounterVec
}

// NewGateMetrics creates and registers gate metrics with the provided
// registry.
func NewGateMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GateMetrics {
	gm := &GateMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_decisions_total",
				Help:      "Total risk gate decisions by risk level and outcome",
			},
			[]string{"risk_level", "decision"},
		),

		pendingApprovals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pending_approvals",
				Help:      "Current number of approval requests awaiting decision",
			},
		),

		approvalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "approval_decisions_total",
				Help:      "Total processed approval decisions",
			},
			[]string{"decision"},
		),
	}

	registry.MustRegister(
		gm.decisionsTotal,
		gm.pendingApprovals,
		gm.approvalsTotal,
	)

	return gm
}

// RecordDecision records one gate outcome. Decision is one of
// "auto_approved", "awaiting_approval", "notify".
func (gm *GateMetrics) RecordDecision(riskLevel, decision string) {
	gm.decisionsTotal.WithLabelValues(riskLevel, decision).Inc()
}

// SetPending updates the approval queue gauge.
func (gm *GateMetrics) SetPending(n int) {
	gm.pendingApprovals.Set(float64(n))
}

// RecordApproval records one processed decision ("approved" or
// "rejected").
func (gm *GateMetrics) RecordApproval(decision string) {
	gm.approvalsTotal.WithLabelValues(decision).Inc()
}
