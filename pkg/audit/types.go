package audit

import (
	"time"

	"caretrust-hq/minerva/pkg/action"
)

// Entry is one audit trail record for a governed action. Written once by
// LogAction; afterwards only the bounded set of outcome fields (Outcome,
// Status, Modifications, override fields) and the APICalls list may
// change, through the manager's update operations.
type Entry struct {
	// ID uniquely identifies the entry.
	ID string `json:"log_id"`

	// AgentID identifies the acting agent instance, derived from the
	// agent type and action id.
	AgentID string `json:"agent_id"`

	AgentType  action.AgentType `json:"agent_type"`
	ActionType string           `json:"action_type"`

	// ActionID links back to the governed action. Exactly one entry
	// exists per action id.
	ActionID string `json:"action_id"`

	PatientID string `json:"patient_id,omitempty"`

	Parameters map[string]any `json:"parameters,omitempty"`
	Rationale  string         `json:"rationale,omitempty"`
	Confidence float64        `json:"confidence_score"`

	RiskLevel action.RiskLevel `json:"risk_level"`
	Status    action.Status    `json:"status"`

	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// Outcome is the handler result summary, set by UpdateOutcome.
	Outcome string `json:"outcome,omitempty"`

	// APICalls are sub-records for external service calls made while
	// executing the action.
	APICalls []APICall `json:"api_calls,omitempty"`

	// Modifications is an append-only list of post-write amendments.
	Modifications []Modification `json:"modifications,omitempty"`

	HumanOverride  bool   `json:"human_override"`
	OverrideBy     string `json:"override_by,omitempty"`
	OverrideReason string `json:"override_reason,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// APICall is a sub-record of one external service call made during an
// action's execution.
type APICall struct {
	ID          string    `json:"call_id"`
	ServiceName string    `json:"service"`
	Endpoint    string    `json:"endpoint"`
	StatusCode  int       `json:"status_code"`
	LatencyMS   float64   `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Modification is one amendment appended to an entry after its initial
// write.
type Modification struct {
	Type      string    `json:"type"`
	By        string    `json:"by,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AccessLog records one PHI-touching read or write attempt. Write-once.
type AccessLog struct {
	ID           string    `json:"access_id"`
	UserID       string    `json:"user_id"`
	UserRole     string    `json:"user_role"`
	PatientID    string    `json:"patient_id"`
	ResourceType string    `json:"resource_type"`
	Action       string    `json:"action"`
	Success      bool      `json:"success"`
	Reason       string    `json:"reason,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// EscalationLog records one triggered escalation. Mutable only to mark
// resolution; a resolved escalation cannot be reopened.
type EscalationLog struct {
	ID          string           `json:"escalation_id"`
	SourceAgent action.AgentType `json:"source_agent"`
	ActionID    string           `json:"action_id"`
	Reason      string           `json:"escalation_reason"`
	Confidence  float64          `json:"confidence_score"`
	RiskLevel   action.RiskLevel `json:"risk_level"`
	AssignedTo  string           `json:"assigned_to,omitempty"`

	Resolved         bool      `json:"resolved"`
	ResolvedBy       string    `json:"resolved_by,omitempty"`
	ResolutionAction string    `json:"resolution_action,omitempty"`
	ResolvedAt       time.Time `json:"resolution_timestamp,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Filter bounds an audit export or listing. Zero fields mean no
// constraint; Limit 0 means no explicit limit (the configured export
// ceiling still applies).
type Filter struct {
	Start     time.Time
	End       time.Time
	PatientID string
	AgentType action.AgentType
	Limit     int
}

// Matches reports whether an entry satisfies the filter.
func (f Filter) Matches(e *Entry) bool {
	if !f.Start.IsZero() && e.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Timestamp.After(f.End) {
		return false
	}
	if f.PatientID != "" && e.PatientID != f.PatientID {
		return false
	}
	if f.AgentType != "" && e.AgentType != f.AgentType {
		return false
	}
	return true
}

// Statistics summarizes the audit trail in one pass over the store.
type Statistics struct {
	TotalEntries       int            `json:"total_audit_logs"`
	TotalAccessLogs    int            `json:"total_access_logs"`
	TotalEscalations   int            `json:"total_escalations"`
	PendingEscalations int            `json:"pending_escalations"`
	TotalAPICalls      int            `json:"total_api_calls"`
	HumanOverrides     int            `json:"human_overrides"`
	ByAgentType        map[string]int `json:"by_agent_type"`
	ByRiskLevel        map[string]int `json:"by_risk_level"`
	ByStatus           map[string]int `json:"by_status"`
}

// Report is the result of an audit export: matching entries in ascending
// timestamp order plus the filter that produced them.
type Report struct {
	GeneratedAt  time.Time `json:"report_generated"`
	TotalEntries int       `json:"total_entries"`
	Filter       Filter    `json:"-"`
	Entries      []Entry   `json:"entries"`

	// Truncated is set when the configured export ceiling cut the result.
	Truncated bool `json:"truncated,omitempty"`
}
