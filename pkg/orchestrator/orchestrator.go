package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/governance"
)

// Orchestrator routes actions to registered agents through the
// governance engine and coordinates multi-step workflows. Routing does
// not re-check governance itself; the engine gates every forwarded
// action exactly once.
type Orchestrator struct {
	logger *slog.Logger
	engine *governance.Engine

	mu        sync.RWMutex
	agents    map[action.AgentType]bool // registered -> active
	workflows map[string]*Workflow
}

// New creates an orchestrator bound to a governance engine.
func New(engine *governance.Engine, logger *slog.Logger) (*Orchestrator, error) {
	if engine == nil {
		return nil, fmt.Errorf("governance engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		logger:    logger.With("component", "orchestrator"),
		engine:    engine,
		agents:    make(map[action.AgentType]bool),
		workflows: make(map[string]*Workflow),
	}, nil
}

// RegisterAgent marks an agent type as routable. Agents start active.
func (o *Orchestrator) RegisterAgent(agentType action.AgentType) error {
	if _, err := action.ParseAgentType(string(agentType)); err != nil {
		return err
	}
	o.mu.Lock()
	o.agents[agentType] = true
	o.mu.Unlock()

	o.logger.Info("Agent registered", "agent_type", string(agentType))
	return nil
}

// SetAgentActive toggles routing for a registered agent.
func (o *Orchestrator) SetAgentActive(agentType action.AgentType, active bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.agents[agentType]; !ok {
		return fmt.Errorf("agent %q not registered", agentType)
	}
	o.agents[agentType] = active
	return nil
}

// routable reports whether the agent is registered and active.
func (o *Orchestrator) routable(agentType action.AgentType) (registered, active bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	active, registered = o.agents[agentType]
	return registered, active
}

// Route validates the target agent and forwards the action into the
// governance engine. The handler for the pair must be registered with
// the engine; routing to an unknown handler is an error rather than the
// engine's neutral no-handler result.
func (o *Orchestrator) Route(ctx context.Context, a *action.Action, userID, sessionID string) (*governance.Response, error) {
	if a == nil {
		return nil, fmt.Errorf("action cannot be nil")
	}
	if _, err := action.ParseAgentType(string(a.AgentType)); err != nil {
		return nil, err
	}

	registered, active := o.routable(a.AgentType)
	if !registered {
		return nil, fmt.Errorf("agent %q not registered", a.AgentType)
	}
	if !active {
		return nil, fmt.Errorf("agent %q is inactive", a.AgentType)
	}
	if !o.engine.HasHandler(a.AgentType, a.ActionType) {
		return nil, fmt.Errorf("no handler for %s/%s", a.AgentType, a.ActionType)
	}

	return o.engine.ProcessAction(ctx, a, userID, sessionID)
}

// ExecuteWorkflow runs an ordered list of routed steps. A step counts as
// completed only when its action executed successfully; a required step
// that does not complete aborts the remaining steps and fails the
// workflow. Steps blocked on approval or escalation are not retried
// here; the workflow records them as incomplete.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, name string, steps []WorkflowStep, userID, sessionID string) (*Workflow, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("workflow needs at least one step")
	}

	w := &Workflow{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    WorkflowInProgress,
		Steps:     append([]WorkflowStep(nil), steps...),
		CreatedAt: time.Now().UTC(),
	}

	o.logger.Info("Workflow started",
		"workflow_id", w.ID,
		"name", name,
		"steps", len(steps),
	)

	for i, step := range steps {
		res := o.runStep(ctx, i, step, userID, sessionID)
		w.StepResults = append(w.StepResults, res)

		if res.Completed {
			w.CompletedSteps = append(w.CompletedSteps, i)
			continue
		}
		if step.Required {
			w.Status = WorkflowFailed
			o.logger.Warn("Workflow aborted on required step",
				"workflow_id", w.ID,
				"step", i,
				"error", res.Error,
			)
			break
		}
	}

	if w.Status != WorkflowFailed {
		w.Status = WorkflowCompleted
	}
	w.CompletedAt = time.Now().UTC()

	o.mu.Lock()
	o.workflows[w.ID] = w
	o.mu.Unlock()

	o.logger.Info("Workflow finished",
		"workflow_id", w.ID,
		"status", string(w.Status),
		"completed_steps", len(w.CompletedSteps),
	)
	return snapshotWorkflow(w), nil
}

// runStep routes one step and normalizes the outcome. Routing errors
// become failed step results instead of aborting the whole call.
func (o *Orchestrator) runStep(ctx context.Context, index int, step WorkflowStep, userID, sessionID string) StepResult {
	opts := []action.Option{
		action.WithParameters(step.Parameters),
		action.WithConfidence(step.Confidence),
	}
	if step.SubjectID != "" {
		opts = append(opts, action.WithSubject(step.SubjectID))
	}
	if step.Rationale != "" {
		opts = append(opts, action.WithRationale(step.Rationale))
	}
	a := action.New(step.AgentType, step.ActionType, opts...)

	resp, err := o.Route(ctx, a, userID, sessionID)
	if err != nil {
		return StepResult{
			Index:    index,
			ActionID: a.ID,
			Status:   action.StatusFailed,
			Error:    err.Error(),
		}
	}

	res := StepResult{
		Index:       index,
		ActionID:    resp.ActionID,
		Disposition: resp.Disposition,
		Status:      resp.Status,
		Completed:   resp.Disposition == governance.DispositionExecuted,
		Response:    resp,
	}
	if !res.Completed {
		res.Error = resp.Reason
		if resp.Result != nil && resp.Result.Error != "" {
			res.Error = resp.Result.Error
		}
	}
	return res
}

// GetWorkflow returns a copy of a finished workflow record.
func (o *Orchestrator) GetWorkflow(id string) (*Workflow, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	w, ok := o.workflows[id]
	if !ok {
		return nil, false
	}
	return snapshotWorkflow(w), true
}

// Workflows returns copies of all recorded workflows, newest first.
func (o *Orchestrator) Workflows() []*Workflow {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*Workflow, 0, len(o.workflows))
	for _, w := range o.workflows {
		out = append(out, snapshotWorkflow(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func snapshotWorkflow(w *Workflow) *Workflow {
	c := *w
	c.Steps = append([]WorkflowStep(nil), w.Steps...)
	c.StepResults = append([]StepResult(nil), w.StepResults...)
	c.CompletedSteps = append([]int(nil), w.CompletedSteps...)
	return &c
}
