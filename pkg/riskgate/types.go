package riskgate

import (
	"time"

	"caretrust-hq/minerva/pkg/action"
)

// ApprovalStatus is the lifecycle state of an approval request.
// APPROVED and REJECTED are terminal; no mutation is permitted afterward.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
	ApprovalExpired  ApprovalStatus = "EXPIRED"
)

// Priority ranks approval requests for reviewer queues.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Reasons attached to approval requests when a gate blocks an action.
const (
	ReasonLowConfidence = "LOW_CONFIDENCE"
	ReasonRiskLevel     = "RISK_LEVEL"
)

// GovernanceRule is the per-risk-level gating policy. Exactly one enabled
// rule exists per risk level at evaluation time.
type GovernanceRule struct {
	ID          string `json:"rule_id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	RiskLevel action.RiskLevel `json:"risk_level" yaml:"risk_level"`

	// ConfidenceThreshold forces an approval request when the action's
	// confidence falls below it, regardless of risk tier.
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// RequiresApproval blocks the action behind human approval even when
	// confidence is sufficient.
	RequiresApproval bool `json:"requires_approval" yaml:"requires_approval"`

	// RequiredApprovers is the consensus size for approval requests
	// created under this rule.
	RequiredApprovers int `json:"required_approvers" yaml:"required_approvers"`

	// AutoEscalate marks actions under this rule for supervisor
	// notification after auto-approval.
	AutoEscalate bool `json:"auto_escalate" yaml:"auto_escalate"`

	Enabled   bool      `json:"enabled" yaml:"enabled"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ApprovalRequest tracks an action blocked behind human consensus.
type ApprovalRequest struct {
	ID        string           `json:"request_id"`
	ActionID  string           `json:"action_id"`
	AgentType action.AgentType `json:"agent_type"`
	ActionType string          `json:"action_type"`
	SubjectID string           `json:"subject_id,omitempty"`

	RiskLevel  action.RiskLevel `json:"risk_level"`
	Confidence float64          `json:"confidence_score"`

	// Rationale is the blocking reason prefixed onto the action's own
	// rationale, e.g. "LOW_CONFIDENCE: assessment incomplete".
	Rationale string `json:"rationale"`

	// Details carries the action's parameter map for reviewer context.
	Details map[string]any `json:"details,omitempty"`

	RequiredApprovers int      `json:"required_approvers"`
	CurrentApprovals  int      `json:"current_approvals"`
	ApprovedBy        []string `json:"approved_by,omitempty"`

	RejectedBy      string `json:"rejected_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	Status    ApprovalStatus `json:"status"`
	Priority  Priority       `json:"priority"`
	CreatedAt time.Time      `json:"created_at"`
}

// Terminal reports whether the request can no longer change state.
func (r *ApprovalRequest) Terminal() bool {
	return r.Status == ApprovalApproved || r.Status == ApprovalRejected || r.Status == ApprovalExpired
}

// RuleUpdate carries optional field updates for an existing rule.
// Nil fields are left unchanged.
type RuleUpdate struct {
	Name                *string  `json:"name,omitempty"`
	Description         *string  `json:"description,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	RequiresApproval    *bool    `json:"requires_approval,omitempty"`
	RequiredApprovers   *int     `json:"required_approvers,omitempty"`
	AutoEscalate        *bool    `json:"auto_escalate,omitempty"`
	Enabled             *bool    `json:"enabled,omitempty"`
}
