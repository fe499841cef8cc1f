package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"caretrust-hq/minerva/pkg/config"
)

// Collector owns all Prometheus metrics for the governance pipeline.
// It manages registration and provides a unified recording interface;
// with metrics disabled every recording call is a cheap no-op.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	pipelineMetrics *PipelineMetrics
	gateMetrics     *GateMetrics
	biasMetrics     *BiasMetrics
}

// NewCollector creates a metrics collector with the given configuration
// and registry. A nil registry gets a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "minerva"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "governance"
	}
	if len(cfg.PipelineDurationBuckets) == 0 {
		// Pipeline passes are in-process; handler dispatch dominates.
		cfg.PipelineDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.pipelineMetrics = NewPipelineMetrics(cfg, registry)
	c.gateMetrics = NewGateMetrics(cfg, registry)
	c.biasMetrics = NewBiasMetrics(cfg, registry)

	return c
}

// RecordAction records one completed pipeline pass.
func (c *Collector) RecordAction(agentType, riskLevel, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.pipelineMetrics.RecordAction(agentType, riskLevel, status, duration)
}

// RecordPermissionDenial records an RBAC or subject access rejection.
func (c *Collector) RecordPermissionDenial(agentType, kind string) {
	if !c.config.Enabled {
		return
	}
	c.pipelineMetrics.RecordDenial(agentType, kind)
}

// RecordGateDecision records a risk gate outcome.
func (c *Collector) RecordGateDecision(riskLevel, decision string) {
	if !c.config.Enabled {
		return
	}
	c.gateMetrics.RecordDecision(riskLevel, decision)
}

// SetPendingApprovals updates the pending approval gauge.
func (c *Collector) SetPendingApprovals(n int) {
	if !c.config.Enabled {
		return
	}
	c.gateMetrics.SetPending(n)
}

// RecordApprovalDecision records one processed approve/reject decision.
func (c *Collector) RecordApprovalDecision(decision string) {
	if !c.config.Enabled {
		return
	}
	c.gateMetrics.RecordApproval(decision)
}

// RecordEscalation records a triggered escalation by trigger type.
func (c *Collector) RecordEscalation(trigger string) {
	if !c.config.Enabled {
		return
	}
	c.pipelineMetrics.RecordEscalation(trigger)
}

// RecordBiasViolation records a disparate impact threshold violation.
func (c *Collector) RecordBiasViolation(agentType, dimension string) {
	if !c.config.Enabled {
		return
	}
	c.biasMetrics.RecordViolation(agentType, dimension)
}

// RecordBiasAnalysis records one full analysis run.
func (c *Collector) RecordBiasAnalysis(analyses, violations int) {
	if !c.config.Enabled {
		return
	}
	c.biasMetrics.RecordAnalysis(analyses, violations)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
