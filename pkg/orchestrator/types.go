package orchestrator

import (
	"time"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/governance"
)

// WorkflowStatus is the lifecycle state of a coordinated workflow.
type WorkflowStatus string

const (
	WorkflowPending    WorkflowStatus = "PENDING"
	WorkflowInProgress WorkflowStatus = "IN_PROGRESS"
	WorkflowCompleted  WorkflowStatus = "COMPLETED"
	WorkflowFailed     WorkflowStatus = "FAILED"
)

// WorkflowStep describes one routed action inside a workflow.
type WorkflowStep struct {
	AgentType  action.AgentType `json:"agent_type" yaml:"agent_type"`
	ActionType string           `json:"action_type" yaml:"action_type"`
	Parameters map[string]any   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	SubjectID  string           `json:"subject_id,omitempty" yaml:"subject_id,omitempty"`
	Confidence float64          `json:"confidence" yaml:"confidence"`
	Rationale  string           `json:"rationale,omitempty" yaml:"rationale,omitempty"`

	// Required marks a step whose failure aborts the remaining steps
	// and fails the workflow.
	Required bool `json:"required" yaml:"required"`
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	Index       int                    `json:"index"`
	ActionID    string                 `json:"action_id"`
	Disposition governance.Disposition `json:"disposition"`
	Status      action.Status          `json:"status"`
	Completed   bool                   `json:"completed"`
	Error       string                 `json:"error,omitempty"`
	Response    *governance.Response   `json:"-"`
}

// Workflow is the record of one coordinated multi-step execution.
type Workflow struct {
	ID     string         `json:"workflow_id"`
	Name   string         `json:"name"`
	Status WorkflowStatus `json:"status"`

	Steps       []WorkflowStep `json:"steps"`
	StepResults []StepResult   `json:"step_results"`

	// CompletedSteps lists the indices of steps that executed
	// successfully, for progress reporting.
	CompletedSteps []int `json:"completed_steps"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}
