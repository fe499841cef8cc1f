package fallback

import (
	"time"

	"caretrust-hq/minerva/pkg/action"
)

// Trigger identifies why an escalation was raised.
type Trigger string

const (
	// TriggerLowConfidence fires when an action's confidence falls below
	// the configured threshold.
	TriggerLowConfidence Trigger = "LOW_CONFIDENCE"

	// TriggerSafetyConcern fires when an action carries an explicit
	// safety concern marker in its parameters.
	TriggerSafetyConcern Trigger = "SAFETY_CONCERN"

	// TriggerExecutionError fires when a handler surfaced an execution
	// error. Raised by callers after dispatch, never by EvaluateAction.
	TriggerExecutionError Trigger = "EXECUTION_ERROR"
)

// SafetyConcernKey is the action parameter that marks an explicit safety
// concern. A true bool or a non-empty string value qualifies; a string
// value doubles as the escalation reason.
const SafetyConcernKey = "safety_concern"

// Escalation is one record of an action routed to human attention.
// Mutable only to mark resolution; a resolved escalation cannot be
// reopened.
type Escalation struct {
	ID         string           `json:"escalation_id"`
	ActionID   string           `json:"action_id"`
	AgentType  action.AgentType `json:"agent_type"`
	ActionType string           `json:"action_type"`
	SubjectID  string           `json:"subject_id,omitempty"`
	Trigger    Trigger          `json:"trigger"`
	Reason     string           `json:"reason"`
	Confidence float64          `json:"confidence_score"`
	RiskLevel  action.RiskLevel `json:"risk_level"`

	Resolved         bool      `json:"resolved"`
	ResolvedBy       string    `json:"resolved_by,omitempty"`
	ResolutionAction string    `json:"resolution_action,omitempty"`
	ResolvedAt       time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Statistics summarizes the escalation workload for read paths.
type Statistics struct {
	Total     int            `json:"total_escalations"`
	Pending   int            `json:"pending_escalations"`
	ByTrigger map[string]int `json:"by_trigger"`
}

// Callback is invoked synchronously when an escalation is triggered.
// The escalation record exists before any callback runs, and a callback
// panic or error never unwinds into the caller.
type Callback func(esc Escalation) error
