package action

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RiskLevel classifies how much human oversight an action needs.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevels lists all risk levels in ascending order of severity.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
}

// Valid reports whether the risk level is one of the defined tiers.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// AgentType identifies a domain workflow handler.
type AgentType string

const (
	AgentOrchestrator        AgentType = "ORCHESTRATOR"
	AgentIntake              AgentType = "INTAKE"
	AgentCarePlanning        AgentType = "CARE_PLANNING"
	AgentMedication          AgentType = "MEDICATION"
	AgentDocumentation       AgentType = "DOCUMENTATION"
	AgentBilling             AgentType = "BILLING"
	AgentCompliance          AgentType = "COMPLIANCE"
	AgentFamilyCommunication AgentType = "FAMILY_COMMUNICATION"
	AgentScheduling          AgentType = "SCHEDULING"
)

// AgentTypes lists every agent type in the system.
func AgentTypes() []AgentType {
	return []AgentType{
		AgentOrchestrator,
		AgentIntake,
		AgentCarePlanning,
		AgentMedication,
		AgentDocumentation,
		AgentBilling,
		AgentCompliance,
		AgentFamilyCommunication,
		AgentScheduling,
	}
}

// ParseAgentType converts a string into an AgentType, validating it against
// the known set.
func ParseAgentType(s string) (AgentType, error) {
	at := AgentType(s)
	for _, known := range AgentTypes() {
		if at == known {
			return at, nil
		}
	}
	return "", fmt.Errorf("unknown agent type %q", s)
}

// Status is the lifecycle state of an action as it moves through the
// governance pipeline.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
	StatusApproved         Status = "APPROVED"
	StatusRejected         Status = "REJECTED"
	StatusCompleted        Status = "COMPLETED"
	StatusFailed           Status = "FAILED"
	StatusEscalated        Status = "ESCALATED"
)

// Action is a single proposed operation by a domain agent. It is created by
// the agent before dispatch and mutated only by the governance engine
// (status and risk level); it is never deleted and is retained through the
// audit trail.
type Action struct {
	// ID uniquely identifies the action (UUID v4).
	ID string `json:"id" yaml:"id"`

	// AgentType is the agent proposing the action.
	AgentType AgentType `json:"agent_type" yaml:"agent_type"`

	// ActionType names the operation, e.g. "medication_change".
	ActionType string `json:"action_type" yaml:"action_type"`

	// Parameters is a free-form parameter map. The governance core treats
	// it as an opaque blob; only handlers interpret specific keys.
	Parameters map[string]any `json:"parameters" yaml:"parameters"`

	// SubjectID is the optional patient/subject the action concerns.
	SubjectID string `json:"subject_id,omitempty" yaml:"subject_id,omitempty"`

	// RiskLevel is assigned by the risk gate during classification.
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`

	// Confidence is the caller-supplied model confidence in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Rationale is a human-readable justification for the action.
	Rationale string `json:"rationale" yaml:"rationale"`

	// Status is the pipeline lifecycle state.
	Status Status `json:"status" yaml:"status"`

	// RequiresApproval is set when a gate queues the action for approval.
	RequiresApproval bool `json:"requires_approval" yaml:"requires_approval"`

	// Timestamp is when the action was created.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// New creates an Action in the PENDING state with a fresh ID and timestamp.
func New(agentType AgentType, actionType string, opts ...Option) *Action {
	a := &Action{
		ID:         uuid.New().String(),
		AgentType:  agentType,
		ActionType: actionType,
		Parameters: make(map[string]any),
		RiskLevel:  RiskLow,
		Confidence: 1.0,
		Status:     StatusPending,
		Timestamp:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option configures an Action at creation time.
type Option func(*Action)

// WithParameters sets the action parameter map.
func WithParameters(params map[string]any) Option {
	return func(a *Action) {
		if params != nil {
			a.Parameters = params
		}
	}
}

// WithSubject sets the patient/subject identifier.
func WithSubject(subjectID string) Option {
	return func(a *Action) { a.SubjectID = subjectID }
}

// WithConfidence sets the caller-supplied confidence score.
func WithConfidence(confidence float64) Option {
	return func(a *Action) { a.Confidence = confidence }
}

// WithRationale sets the human-readable rationale.
func WithRationale(rationale string) Option {
	return func(a *Action) { a.Rationale = rationale }
}

// Validate checks the action for structural problems before it enters the
// pipeline.
func (a *Action) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("action id is required")
	}
	if a.ActionType == "" {
		return fmt.Errorf("action type is required")
	}
	if _, err := ParseAgentType(string(a.AgentType)); err != nil {
		return err
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0, 1]", a.Confidence)
	}
	return nil
}

// Result is the outcome of handler execution. Handlers return failures in
// the Error field rather than panicking so the audit outcome stays
// deterministic.
type Result struct {
	// Success reports whether the handler completed the operation.
	Success bool `json:"success"`

	// Error carries the failure message when Success is false.
	Error string `json:"error,omitempty"`

	// Payload is arbitrary handler output.
	Payload map[string]any `json:"payload,omitempty"`
}

// OK returns a successful Result with an optional payload.
func OK(payload map[string]any) *Result {
	return &Result{Success: true, Payload: payload}
}

// Fail returns a failed Result carrying the given message.
func Fail(msg string) *Result {
	return &Result{Success: false, Error: msg}
}
