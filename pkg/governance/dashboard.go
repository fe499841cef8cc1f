package governance

import (
	"context"

	"caretrust-hq/minerva/pkg/bias"
	"caretrust-hq/minerva/pkg/config"
)

// DashboardData assembles the administrative view: pending approvals and
// escalations, trail statistics, and the bias summary.
func (e *Engine) DashboardData(ctx context.Context) (*DashboardData, error) {
	stats, err := e.audit.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	d := &DashboardData{
		PendingApprovals:     e.gate.PendingApprovals(""),
		PendingEscalations:   e.fallback.PendingEscalations(),
		AuditStatistics:      stats,
		EscalationStatistics: e.fallback.Statistics(),
	}

	if e.bias != nil {
		d.BiasSummary = e.bias.Summary()
		events := e.bias.ComplianceEvents(bias.EventFilter{})
		if len(events) > dashboardComplianceEvents {
			events = events[:dashboardComplianceEvents]
		}
		d.ComplianceEvents = events
	}
	return d, nil
}

// Configuration returns the active configuration snapshot.
func (e *Engine) Configuration() *config.Config {
	return e.config.Current()
}

// UpdateConfiguration validates and applies a new configuration, then
// propagates the tunables the downstream managers cache: the fallback
// confidence threshold and the bias disparate impact threshold.
func (e *Engine) UpdateConfiguration(cfg *config.Config) error {
	if err := e.config.Update(cfg); err != nil {
		return err
	}
	applied := e.config.Current()

	if err := e.fallback.UpdateConfidenceThreshold(applied.Governance.ConfidenceThreshold); err != nil {
		return err
	}
	if e.bias != nil {
		if err := e.bias.UpdateThreshold(applied.Bias.DisparateImpactThreshold); err != nil {
			return err
		}
	}

	e.logger.Info("Configuration updated",
		"confidence_threshold", applied.Governance.ConfidenceThreshold,
		"disparate_impact_threshold", applied.Bias.DisparateImpactThreshold,
	)
	return nil
}
