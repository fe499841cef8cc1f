package audit

import (
	"context"
	"time"

	"caretrust-hq/minerva/pkg/action"
)

// Store is the persistence interface for the audit trail. Implementations
// must keep the secondary indices (patient, agent type, session)
// consistent with the primary store: an entry is visible in its indices
// if and only if the entry itself is visible.
//
// All returned records are copies; mutating them does not affect stored
// state.
type Store interface {
	// AppendEntry stores a new audit entry and registers it in its
	// applicable indices atomically.
	AppendEntry(ctx context.Context, e *Entry) error

	// GetEntry returns the entry with the given id.
	GetEntry(ctx context.Context, id string) (*Entry, error)

	// EntryByAction returns the entry recorded for the given action id.
	// Approval re-execution can record a second entry for the same
	// action; implementations return the newest one.
	EntryByAction(ctx context.Context, actionID string) (*Entry, error)

	// UpdateOutcome sets the outcome and status of an existing entry and
	// appends the given modifications. Returns EntryNotFoundError for an
	// unknown id without creating an entry.
	UpdateOutcome(ctx context.Context, id, outcome string, status action.Status, mods []Modification) error

	// RecordOverride marks an entry as human-overridden and appends a
	// HUMAN_OVERRIDE modification.
	RecordOverride(ctx context.Context, id, by, reason string) error

	// AppendAPICall attaches an external-call sub-record to an entry.
	AppendAPICall(ctx context.Context, id string, call APICall) error

	// EntriesByPatient returns entries for a patient, newest first.
	EntriesByPatient(ctx context.Context, patientID string) ([]Entry, error)

	// EntriesByAgent returns entries for an agent type, newest first.
	EntriesByAgent(ctx context.Context, agentType action.AgentType) ([]Entry, error)

	// EntriesBySession returns entries for a session in chronological
	// order.
	EntriesBySession(ctx context.Context, sessionID string) ([]Entry, error)

	// ListEntries returns entries matching the filter in ascending
	// timestamp order, honoring Filter.Limit when positive.
	ListEntries(ctx context.Context, f Filter) ([]Entry, error)

	// AppendAccessLog stores a PHI access record.
	AppendAccessLog(ctx context.Context, l *AccessLog) error

	// AccessLogsByPatient returns access records for a patient, newest
	// first.
	AccessLogsByPatient(ctx context.Context, patientID string) ([]AccessLog, error)

	// AppendEscalation stores an escalation record.
	AppendEscalation(ctx context.Context, l *EscalationLog) error

	// ResolveEscalation marks an escalation resolved. Returns
	// EscalationNotFoundError for an unknown id and ErrEscalationResolved
	// when already resolved.
	ResolveEscalation(ctx context.Context, id, by, resolutionAction string) error

	// PendingEscalations returns all unresolved escalations.
	PendingEscalations(ctx context.Context) ([]EscalationLog, error)

	// Statistics derives trail-wide counts in one pass.
	Statistics(ctx context.Context) (*Statistics, error)

	// PruneBefore deletes entries, access logs, and resolved escalations
	// older than the cutoff, returning the number of audit entries
	// removed. Unresolved escalations are never pruned.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
