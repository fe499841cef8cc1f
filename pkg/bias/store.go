package bias

import "context"

// Store persists bias monitoring records. The monitor treats it as a
// write-through side channel: persistence failures are logged, never
// surfaced to the pipeline recording an outcome.
type Store interface {
	// AppendOutcome persists one recorded action outcome.
	AppendOutcome(ctx context.Context, rec *OutcomeRecord) error

	// SaveMetric persists one computed metric.
	SaveMetric(ctx context.Context, m *Metric) error

	// SaveComplianceEvent persists a new compliance event.
	SaveComplianceEvent(ctx context.Context, e *ComplianceEvent) error

	// UpdateComplianceEvent persists a remediation status change.
	UpdateComplianceEvent(ctx context.Context, id, status, assignedTo string) error

	// LoadOutcomes returns all persisted outcomes for warm start,
	// oldest first.
	LoadOutcomes(ctx context.Context) ([]OutcomeRecord, error)

	// Close releases the store.
	Close() error
}
