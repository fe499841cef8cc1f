package governance

import (
	"context"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/audit"
	"caretrust-hq/minerva/pkg/bias"
	"caretrust-hq/minerva/pkg/fallback"
	"caretrust-hq/minerva/pkg/riskgate"
)

// Disposition classifies the terminal outcome of one pipeline pass so
// callers can branch on it rather than on a bare boolean.
type Disposition string

const (
	// DispositionRejected means an authorization or access check denied
	// the action before execution.
	DispositionRejected Disposition = "REJECTED"

	// DispositionEscalated means the fallback layer flagged the action
	// for human attention; nothing was executed.
	DispositionEscalated Disposition = "ESCALATED"

	// DispositionAwaitingApproval means the risk gate queued the action
	// behind human consensus.
	DispositionAwaitingApproval Disposition = "AWAITING_APPROVAL"

	// DispositionExecuted means the handler ran and reported success.
	DispositionExecuted Disposition = "EXECUTED"

	// DispositionExecutionFailed means the handler ran and reported a
	// failure. The pipeline itself completed normally.
	DispositionExecutionFailed Disposition = "EXECUTION_FAILED"
)

// Handler executes one (agent type, action type) pair. Failures are
// returned, never panicked, so the audit outcome stays deterministic;
// the engine converts a returned error into a failed Result.
type Handler func(ctx context.Context, a *action.Action) (*action.Result, error)

// Hook observes an action before or after handler execution. Hooks are
// best-effort: a panicking hook is logged and skipped, never fatal.
type Hook func(ctx context.Context, a *action.Action)

// Response is the structured outcome of one pipeline pass.
type Response struct {
	// Disposition is the coarse outcome class.
	Disposition Disposition `json:"disposition"`

	// ActionID identifies the governed action.
	ActionID string `json:"action_id"`

	// Status is the action's terminal lifecycle state for this pass.
	Status action.Status `json:"status"`

	// Reason explains rejections and escalations.
	Reason string `json:"reason,omitempty"`

	// LogID is the audit entry recorded for this pass.
	LogID string `json:"log_id,omitempty"`

	// Result is the handler output when the action was executed.
	Result *action.Result `json:"result,omitempty"`

	// ApprovalRequest describes the pending consensus when the gate
	// blocked the action.
	ApprovalRequest *riskgate.ApprovalRequest `json:"approval_request,omitempty"`

	// Escalation describes the fallback escalation when one was raised.
	Escalation *fallback.Escalation `json:"escalation,omitempty"`

	// EscalationRequired mirrors Disposition == ESCALATED for callers
	// that poll a single flag.
	EscalationRequired bool `json:"escalation_required,omitempty"`

	// Notify is set when a gate auto-approved the action but asked for
	// supervisor notification.
	Notify bool `json:"notify,omitempty"`
}

// handlerKey indexes the handler registry.
type handlerKey struct {
	agent      action.AgentType
	actionType string
}

// DashboardData aggregates the administrative view across every manager.
type DashboardData struct {
	PendingApprovals     []riskgate.ApprovalRequest `json:"pending_approvals"`
	PendingEscalations   []fallback.Escalation      `json:"pending_escalations"`
	AuditStatistics      *audit.Statistics          `json:"audit_statistics"`
	EscalationStatistics fallback.Statistics        `json:"escalation_statistics"`
	BiasSummary          bias.Summary               `json:"bias_summary"`
	ComplianceEvents     []bias.ComplianceEvent     `json:"compliance_events"`
}

// dashboardComplianceEvents bounds the compliance event list on the
// dashboard to the most recent entries.
const dashboardComplianceEvents = 10
