package orchestrator_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/audit"
	"caretrust-hq/minerva/pkg/audit/storage"
	"caretrust-hq/minerva/pkg/config"
	"caretrust-hq/minerva/pkg/fallback"
	"caretrust-hq/minerva/pkg/governance"
	"caretrust-hq/minerva/pkg/orchestrator"
	"caretrust-hq/minerva/pkg/rbac"
	"caretrust-hq/minerva/pkg/riskgate"
)

type fixture struct {
	orch   *orchestrator.Orchestrator
	engine *governance.Engine
	user   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	rbacM := rbac.NewManager(rbac.DefaultPermissions(), logger)
	engine, err := governance.NewEngine(config.NewManager(cfg), governance.Dependencies{
		RBAC:     rbacM,
		Gate:     riskgate.NewManager(logger),
		Audit:    audit.NewManager(storage.NewMemoryStore(), audit.ManagerConfig{}, logger),
		Fallback: fallback.NewManager(cfg.Governance.ConfidenceThreshold, logger),
	}, logger)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	userID, err := rbacM.RegisterUser(rbac.User{Username: "director", Role: rbac.RoleClinicalDirector, Active: true})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	orch, err := orchestrator.New(engine, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{orch: orch, engine: engine, user: userID}
}

func (f *fixture) registerOK(t *testing.T, agent action.AgentType, actionType string) {
	t.Helper()
	if err := f.orch.RegisterAgent(agent); err != nil {
		t.Fatalf("RegisterAgent: %v", err)
	}
	if err := f.engine.RegisterHandler(agent, actionType,
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			return action.OK(nil), nil
		}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}
}

func TestRoute_ForwardsThroughEngine(t *testing.T) {
	f := newFixture(t)
	f.registerOK(t, action.AgentIntake, "view_patient")

	a := action.New(action.AgentIntake, "view_patient")
	resp, err := f.orch.Route(context.Background(), a, f.user, "sess-1")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if resp.Disposition != governance.DispositionExecuted {
		t.Errorf("Disposition = %s, want EXECUTED", resp.Disposition)
	}
}

func TestRoute_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := action.New(action.AgentIntake, "view_patient")
	if _, err := f.orch.Route(ctx, a, f.user, "s"); err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Errorf("unregistered agent err = %v", err)
	}

	if err := f.orch.RegisterAgent(action.AgentIntake); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orch.Route(ctx, a, f.user, "s"); err == nil || !strings.Contains(err.Error(), "no handler") {
		t.Errorf("missing handler err = %v", err)
	}

	f.registerOK(t, action.AgentIntake, "view_patient")
	if err := f.orch.SetAgentActive(action.AgentIntake, false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orch.Route(ctx, a, f.user, "s"); err == nil || !strings.Contains(err.Error(), "inactive") {
		t.Errorf("inactive agent err = %v", err)
	}

	bogus := &action.Action{ID: "x", AgentType: "BOGUS", ActionType: "y", Confidence: 1}
	if _, err := f.orch.Route(ctx, bogus, f.user, "s"); err == nil {
		t.Error("bogus agent type accepted")
	}
}

func TestExecuteWorkflow_AllStepsComplete(t *testing.T) {
	f := newFixture(t)
	f.registerOK(t, action.AgentIntake, "view_patient")
	f.registerOK(t, action.AgentScheduling, "schedule_appointment")

	steps := []orchestrator.WorkflowStep{
		{AgentType: action.AgentIntake, ActionType: "view_patient", Confidence: 0.95, Required: true},
		{AgentType: action.AgentScheduling, ActionType: "schedule_appointment", Confidence: 0.95},
	}
	w, err := f.orch.ExecuteWorkflow(context.Background(), "admission", steps, f.user, "sess-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if w.Status != orchestrator.WorkflowCompleted {
		t.Fatalf("Status = %s, want COMPLETED", w.Status)
	}
	if len(w.CompletedSteps) != 2 || w.CompletedSteps[0] != 0 || w.CompletedSteps[1] != 1 {
		t.Errorf("CompletedSteps = %v, want [0 1]", w.CompletedSteps)
	}
	if len(w.StepResults) != 2 {
		t.Fatalf("StepResults = %d, want 2", len(w.StepResults))
	}
	for i, r := range w.StepResults {
		if !r.Completed {
			t.Errorf("step %d not completed: %+v", i, r)
		}
	}
}

func TestExecuteWorkflow_RequiredStepFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.registerOK(t, action.AgentIntake, "view_patient")
	f.registerOK(t, action.AgentScheduling, "schedule_appointment")

	if err := f.engine.RegisterHandler(action.AgentIntake, "view_patient",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			return nil, fmt.Errorf("record locked")
		}); err != nil {
		t.Fatal(err)
	}

	executed := 0
	if err := f.engine.RegisterHandler(action.AgentScheduling, "schedule_appointment",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			executed++
			return action.OK(nil), nil
		}); err != nil {
		t.Fatal(err)
	}

	steps := []orchestrator.WorkflowStep{
		{AgentType: action.AgentIntake, ActionType: "view_patient", Confidence: 0.95, Required: true},
		{AgentType: action.AgentScheduling, ActionType: "schedule_appointment", Confidence: 0.95},
	}
	w, err := f.orch.ExecuteWorkflow(context.Background(), "admission", steps, f.user, "sess-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if w.Status != orchestrator.WorkflowFailed {
		t.Fatalf("Status = %s, want FAILED", w.Status)
	}
	if len(w.StepResults) != 1 {
		t.Fatalf("StepResults = %d, remaining steps must not run", len(w.StepResults))
	}
	if executed != 0 {
		t.Errorf("later step executed %d times after required failure", executed)
	}
	if len(w.CompletedSteps) != 0 {
		t.Errorf("CompletedSteps = %v, want empty", w.CompletedSteps)
	}
	if w.StepResults[0].Error != "record locked" {
		t.Errorf("step error = %q", w.StepResults[0].Error)
	}
}

func TestExecuteWorkflow_OptionalStepFailureContinues(t *testing.T) {
	f := newFixture(t)
	f.registerOK(t, action.AgentIntake, "view_patient")
	f.registerOK(t, action.AgentScheduling, "schedule_appointment")

	if err := f.engine.RegisterHandler(action.AgentIntake, "view_patient",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			return action.Fail("transient"), nil
		}); err != nil {
		t.Fatal(err)
	}

	steps := []orchestrator.WorkflowStep{
		{AgentType: action.AgentIntake, ActionType: "view_patient", Confidence: 0.95},
		{AgentType: action.AgentScheduling, ActionType: "schedule_appointment", Confidence: 0.95, Required: true},
	}
	w, err := f.orch.ExecuteWorkflow(context.Background(), "admission", steps, f.user, "sess-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if w.Status != orchestrator.WorkflowCompleted {
		t.Fatalf("Status = %s, want COMPLETED", w.Status)
	}
	if len(w.CompletedSteps) != 1 || w.CompletedSteps[0] != 1 {
		t.Errorf("CompletedSteps = %v, want [1]", w.CompletedSteps)
	}
}

func TestExecuteWorkflow_BlockedStepNotCompleted(t *testing.T) {
	f := newFixture(t)
	f.registerOK(t, action.AgentMedication, "medication_change")

	// HIGH risk routes to approval, so the step does not complete.
	steps := []orchestrator.WorkflowStep{
		{AgentType: action.AgentMedication, ActionType: "medication_change", Confidence: 0.99, Required: true},
	}
	w, err := f.orch.ExecuteWorkflow(context.Background(), "med-change", steps, f.user, "sess-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if w.Status != orchestrator.WorkflowFailed {
		t.Fatalf("Status = %s, want FAILED", w.Status)
	}
	if w.StepResults[0].Disposition != governance.DispositionAwaitingApproval {
		t.Errorf("Disposition = %s, want AWAITING_APPROVAL", w.StepResults[0].Disposition)
	}
}

func TestWorkflowLookup(t *testing.T) {
	f := newFixture(t)
	f.registerOK(t, action.AgentIntake, "view_patient")

	steps := []orchestrator.WorkflowStep{
		{AgentType: action.AgentIntake, ActionType: "view_patient", Confidence: 0.95},
	}
	w, err := f.orch.ExecuteWorkflow(context.Background(), "one", steps, f.user, "s")
	if err != nil {
		t.Fatal(err)
	}

	got, ok := f.orch.GetWorkflow(w.ID)
	if !ok || got.Name != "one" {
		t.Fatalf("GetWorkflow = %+v, %v", got, ok)
	}
	if _, ok := f.orch.GetWorkflow("missing"); ok {
		t.Error("lookup of unknown workflow succeeded")
	}
	if all := f.orch.Workflows(); len(all) != 1 {
		t.Errorf("Workflows = %d, want 1", len(all))
	}

	// Returned records are copies.
	got.CompletedSteps = append(got.CompletedSteps, 99)
	again, _ := f.orch.GetWorkflow(w.ID)
	for _, idx := range again.CompletedSteps {
		if idx == 99 {
			t.Error("mutation leaked into stored workflow")
		}
	}
}

func TestExecuteWorkflow_Empty(t *testing.T) {
	f := newFixture(t)
	if _, err := f.orch.ExecuteWorkflow(context.Background(), "empty", nil, f.user, "s"); err == nil {
		t.Error("empty workflow accepted")
	}
}
