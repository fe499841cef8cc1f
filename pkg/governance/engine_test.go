package governance_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/audit"
	"caretrust-hq/minerva/pkg/audit/storage"
	"caretrust-hq/minerva/pkg/bias"
	"caretrust-hq/minerva/pkg/config"
	"caretrust-hq/minerva/pkg/fallback"
	"caretrust-hq/minerva/pkg/governance"
	"caretrust-hq/minerva/pkg/rbac"
	"caretrust-hq/minerva/pkg/riskgate"
)

type fixture struct {
	engine   *governance.Engine
	rbac     *rbac.Manager
	gate     *riskgate.Manager
	audit    *audit.Manager
	fallback *fallback.Manager
	bias     *bias.Monitor
	cfg      *config.Manager

	director  string
	director2 string
	admin     string
	billing   string
	nurse     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cm := config.NewManager(cfg)

	f := &fixture{
		rbac:     rbac.NewManager(rbac.DefaultPermissions(), logger),
		gate:     riskgate.NewManager(logger),
		audit:    audit.NewManager(storage.NewMemoryStore(), audit.ManagerConfig{}, logger),
		fallback: fallback.NewManager(cfg.Governance.ConfidenceThreshold, logger),
		bias:     bias.NewMonitor(bias.MonitorConfig{}, nil, logger),
		cfg:      cm,
	}

	engine, err := governance.NewEngine(cm, governance.Dependencies{
		RBAC:     f.rbac,
		Gate:     f.gate,
		Audit:    f.audit,
		Fallback: f.fallback,
		Bias:     f.bias,
	}, logger)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	f.engine = engine

	f.director = f.registerUser(t, "director", rbac.RoleClinicalDirector)
	f.director2 = f.registerUser(t, "director2", rbac.RoleClinicalDirector)
	f.admin = f.registerUser(t, "admin", rbac.RoleSystemAdmin)
	f.billing = f.registerUser(t, "billing", rbac.RoleBillingStaff)
	f.nurse = f.registerUser(t, "nurse", rbac.RoleNurseManager)
	return f
}

func (f *fixture) registerUser(t *testing.T, username string, role rbac.Role) string {
	t.Helper()
	id, err := f.rbac.RegisterUser(rbac.User{Username: username, Role: role, Active: true})
	if err != nil {
		t.Fatalf("RegisterUser(%s): %v", username, err)
	}
	return id
}

func (f *fixture) entryCount(t *testing.T) int {
	t.Helper()
	stats, err := f.audit.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	return stats.TotalEntries
}

func TestProcessAction_LowRiskAutoExecutes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := action.New(action.AgentIntake, "view_patient", action.WithConfidence(0.95))
	resp, err := f.engine.ProcessAction(ctx, a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionExecuted {
		t.Fatalf("Disposition = %s, want EXECUTED", resp.Disposition)
	}
	if resp.Status != action.StatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", resp.Status)
	}
	if a.RiskLevel != action.RiskLow {
		t.Errorf("RiskLevel = %s, want LOW", a.RiskLevel)
	}
	if resp.ApprovalRequest != nil {
		t.Error("unexpected approval request on low-risk action")
	}
	if resp.Notify {
		t.Error("Notify set on low-risk action")
	}
	if got := f.entryCount(t); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}
}

func TestProcessAction_NoHandlerNeutralResult(t *testing.T) {
	f := newFixture(t)

	a := action.New(action.AgentIntake, "view_patient")
	resp, err := f.engine.ProcessAction(context.Background(), a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if !resp.Result.Success {
		t.Fatal("neutral result should be a success")
	}
	if msg := resp.Result.Payload["message"]; msg != "Action processed (no specific handler)" {
		t.Errorf("message = %v", msg)
	}
}

func TestProcessAction_HandlerDispatch(t *testing.T) {
	f := newFixture(t)

	var got *action.Action
	err := f.engine.RegisterHandler(action.AgentIntake, "view_patient",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			got = a
			return action.OK(map[string]any{"patient": "p-1"}), nil
		})
	if err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	a := action.New(action.AgentIntake, "view_patient")
	resp, err := f.engine.ProcessAction(context.Background(), a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Fatal("handler did not receive the action")
	}
	if resp.Result.Payload["patient"] != "p-1" {
		t.Errorf("payload = %v", resp.Result.Payload)
	}
}

func TestProcessAction_HandlerFailureRecordedVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.engine.RegisterHandler(action.AgentIntake, "view_patient",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			return nil, fmt.Errorf("ehr connection refused")
		}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	a := action.New(action.AgentIntake, "view_patient")
	resp, err := f.engine.ProcessAction(ctx, a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionExecutionFailed {
		t.Fatalf("Disposition = %s, want EXECUTION_FAILED", resp.Disposition)
	}
	if resp.Status != action.StatusFailed {
		t.Errorf("Status = %s, want FAILED", resp.Status)
	}

	entry, err := f.audit.GetEntry(ctx, resp.LogID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry.Outcome != "ehr connection refused" {
		t.Errorf("Outcome = %q, want the handler error verbatim", entry.Outcome)
	}
	if entry.Status != action.StatusFailed {
		t.Errorf("entry status = %s, want FAILED", entry.Status)
	}
}

func TestProcessAction_HandlerPanicIsolated(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.RegisterHandler(action.AgentIntake, "view_patient",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			panic("boom")
		}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	a := action.New(action.AgentIntake, "view_patient")
	resp, err := f.engine.ProcessAction(context.Background(), a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionExecutionFailed {
		t.Fatalf("Disposition = %s, want EXECUTION_FAILED", resp.Disposition)
	}
	if !strings.Contains(resp.Result.Error, "handler panic") {
		t.Errorf("Error = %q, want panic message", resp.Result.Error)
	}
}

func TestProcessAction_PermissionDenied(t *testing.T) {
	f := newFixture(t)

	// Billing staff has no permission record for MEDICATION.
	a := action.New(action.AgentMedication, "medication_change", action.WithConfidence(0.99))
	resp, err := f.engine.ProcessAction(context.Background(), a, f.billing, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionRejected {
		t.Fatalf("Disposition = %s, want REJECTED", resp.Disposition)
	}
	if resp.Status != action.StatusRejected {
		t.Errorf("Status = %s, want REJECTED", resp.Status)
	}
	if !strings.Contains(resp.Reason, "Permission denied") {
		t.Errorf("Reason = %q", resp.Reason)
	}
	if got := f.entryCount(t); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}
}

func TestProcessAction_SubjectAccessDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Billing staff may submit claims but not edit patient records.
	a := action.New(action.AgentBilling, "submit_claim",
		action.WithSubject("patient-7"), action.WithConfidence(0.95))
	resp, err := f.engine.ProcessAction(ctx, a, f.billing, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionRejected {
		t.Fatalf("Disposition = %s, want REJECTED", resp.Disposition)
	}
	if !strings.Contains(resp.Reason, "Patient access denied") {
		t.Errorf("Reason = %q", resp.Reason)
	}

	logs, err := f.audit.AccessLogsForPatient(ctx, "patient-7")
	if err != nil {
		t.Fatalf("AccessLogsForPatient: %v", err)
	}
	if len(logs) != 1 || logs[0].Success {
		t.Fatalf("want one denied access log, got %+v", logs)
	}
	if got := f.entryCount(t); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}
}

func TestProcessAction_DeactivatedUserDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.rbac.GrantOverride(f.nurse, "medication_change", f.admin); err != nil {
		t.Fatalf("GrantOverride: %v", err)
	}
	if err := f.rbac.DeactivateUser(f.nurse); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}

	a := action.New(action.AgentMedication, "medication_change", action.WithConfidence(0.99))
	resp, err := f.engine.ProcessAction(ctx, a, f.nurse, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionRejected {
		t.Fatalf("Disposition = %s, want REJECTED (override must not survive deactivation)", resp.Disposition)
	}
	if !strings.Contains(resp.Reason, "inactive") {
		t.Errorf("Reason = %q", resp.Reason)
	}
}

func TestProcessAction_LowConfidenceEscalates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := action.New(action.AgentCarePlanning, "care_plan_update", action.WithConfidence(0.4))
	resp, err := f.engine.ProcessAction(ctx, a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionEscalated {
		t.Fatalf("Disposition = %s, want ESCALATED", resp.Disposition)
	}
	if !resp.EscalationRequired || resp.Escalation == nil {
		t.Fatal("escalation details missing")
	}
	if resp.Escalation.Trigger != fallback.TriggerLowConfidence {
		t.Errorf("Trigger = %s", resp.Escalation.Trigger)
	}
	if resp.Status != action.StatusEscalated {
		t.Errorf("Status = %s, want ESCALATED", resp.Status)
	}

	// The engine's fallback callback mirrors the escalation into the
	// audit trail.
	pending, err := f.audit.PendingEscalations(ctx)
	if err != nil {
		t.Fatalf("PendingEscalations: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != resp.Escalation.ID {
		t.Fatalf("audit escalations = %+v, want the mirrored record", pending)
	}
	if got := f.entryCount(t); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}
}

func TestProcessAction_HighRiskAwaitsApproval(t *testing.T) {
	f := newFixture(t)

	a := action.New(action.AgentMedication, "medication_change", action.WithConfidence(0.99))
	resp, err := f.engine.ProcessAction(context.Background(), a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if a.RiskLevel != action.RiskHigh {
		t.Fatalf("RiskLevel = %s, want HIGH", a.RiskLevel)
	}
	if resp.Disposition != governance.DispositionAwaitingApproval {
		t.Fatalf("Disposition = %s, want AWAITING_APPROVAL", resp.Disposition)
	}
	req := resp.ApprovalRequest
	if req == nil {
		t.Fatal("approval request missing")
	}
	if req.RequiredApprovers != 1 {
		t.Errorf("RequiredApprovers = %d, want 1", req.RequiredApprovers)
	}
	if req.Priority != riskgate.PriorityHigh {
		t.Errorf("Priority = %s, want HIGH", req.Priority)
	}
	if got := f.entryCount(t); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}
}

func TestProcessAction_MediumRiskNotifies(t *testing.T) {
	f := newFixture(t)

	a := action.New(action.AgentCarePlanning, "care_plan_update", action.WithConfidence(0.95))
	resp, err := f.engine.ProcessAction(context.Background(), a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionExecuted {
		t.Fatalf("Disposition = %s, want EXECUTED", resp.Disposition)
	}
	if !resp.Notify {
		t.Error("Notify not set on MEDIUM risk auto-approval")
	}
}

func TestProcessAction_HooksRunAndIsolate(t *testing.T) {
	f := newFixture(t)

	var order []string
	f.engine.RegisterPreHook(func(ctx context.Context, a *action.Action) {
		order = append(order, "pre")
	})
	f.engine.RegisterPreHook(func(ctx context.Context, a *action.Action) {
		panic("pre hook failure")
	})
	f.engine.RegisterPostHook(func(ctx context.Context, a *action.Action) {
		order = append(order, "post")
	})

	a := action.New(action.AgentIntake, "view_patient")
	resp, err := f.engine.ProcessAction(context.Background(), a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionExecuted {
		t.Fatalf("Disposition = %s, panicking hook must not abort the pipeline", resp.Disposition)
	}
	if len(order) != 2 || order[0] != "pre" || order[1] != "post" {
		t.Errorf("hook order = %v", order)
	}
}

func TestProcessApproval_SingleApprover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	executed := false
	if err := f.engine.RegisterHandler(action.AgentMedication, "medication_change",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			executed = true
			return action.OK(nil), nil
		}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	a := action.New(action.AgentMedication, "medication_change",
		action.WithConfidence(0.99), action.WithSubject("patient-3"))
	resp, err := f.engine.ProcessAction(ctx, a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	reqID := resp.ApprovalRequest.ID

	final, err := f.engine.ProcessApproval(ctx, reqID, f.director2, true, "reviewed")
	if err != nil {
		t.Fatalf("ProcessApproval: %v", err)
	}
	if final.Disposition != governance.DispositionExecuted {
		t.Fatalf("Disposition = %s, want EXECUTED", final.Disposition)
	}
	if !executed {
		t.Fatal("handler did not run after approval")
	}

	// The re-execution records its own audit entry for the same action.
	entry, err := f.audit.EntryForAction(ctx, a.ID)
	if err != nil {
		t.Fatalf("EntryForAction: %v", err)
	}
	if entry.Status != action.StatusCompleted {
		t.Errorf("final entry status = %s, want COMPLETED", entry.Status)
	}
}

func TestProcessApproval_ConsensusIdempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	executions := 0
	if err := f.engine.RegisterHandler(action.AgentMedication, "emergency_escalation",
		func(ctx context.Context, a *action.Action) (*action.Result, error) {
			executions++
			return action.OK(nil), nil
		}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	a := action.New(action.AgentMedication, "emergency_escalation", action.WithConfidence(0.99))
	resp, err := f.engine.ProcessAction(ctx, a, f.admin, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if a.RiskLevel != action.RiskCritical {
		t.Fatalf("RiskLevel = %s, want CRITICAL", a.RiskLevel)
	}
	req := resp.ApprovalRequest
	if req.RequiredApprovers != 2 {
		t.Fatalf("RequiredApprovers = %d, want 2", req.RequiredApprovers)
	}
	if req.Priority != riskgate.PriorityUrgent {
		t.Errorf("Priority = %s, want URGENT", req.Priority)
	}

	first, err := f.engine.ProcessApproval(ctx, req.ID, f.director, true, "")
	if err != nil {
		t.Fatalf("first approval: %v", err)
	}
	if first.Disposition != governance.DispositionAwaitingApproval {
		t.Fatalf("first approval disposition = %s, want AWAITING_APPROVAL", first.Disposition)
	}
	if executions != 0 {
		t.Fatal("executed before consensus")
	}

	second, err := f.engine.ProcessApproval(ctx, req.ID, f.director2, true, "")
	if err != nil {
		t.Fatalf("second approval: %v", err)
	}
	if second.Disposition != governance.DispositionExecuted {
		t.Fatalf("second approval disposition = %s, want EXECUTED", second.Disposition)
	}
	if executions != 1 {
		t.Fatalf("executions = %d, want 1", executions)
	}

	third, err := f.engine.ProcessApproval(ctx, req.ID, f.admin, true, "")
	if err != nil {
		t.Fatalf("third approval: %v", err)
	}
	if executions != 1 {
		t.Fatalf("repeat approval re-executed the action, executions = %d", executions)
	}
	if third.Result != nil {
		t.Error("no-op approval should not carry a handler result")
	}
}

func TestProcessApproval_RejectionTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := action.New(action.AgentMedication, "emergency_escalation", action.WithConfidence(0.99))
	resp, err := f.engine.ProcessAction(ctx, a, f.admin, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	reqID := resp.ApprovalRequest.ID

	if _, err := f.engine.ProcessApproval(ctx, reqID, f.director, true, ""); err != nil {
		t.Fatalf("first approval: %v", err)
	}
	rej, err := f.engine.ProcessApproval(ctx, reqID, f.director2, false, "unsafe dosage")
	if err != nil {
		t.Fatalf("rejection: %v", err)
	}
	if rej.Disposition != governance.DispositionRejected {
		t.Fatalf("Disposition = %s, want REJECTED", rej.Disposition)
	}

	if _, err := f.engine.ProcessApproval(ctx, reqID, f.admin, true, ""); err == nil {
		t.Fatal("approval after rejection must fail")
	}
	req, _ := f.gate.GetRequest(reqID)
	if req.Status != riskgate.ApprovalRejected {
		t.Errorf("request status = %s, want REJECTED", req.Status)
	}
}

func TestProcessApproval_UnauthorizedApprover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := action.New(action.AgentMedication, "medication_change", action.WithConfidence(0.99))
	resp, err := f.engine.ProcessAction(ctx, a, f.director, "sess-1")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}

	_, err = f.engine.ProcessApproval(ctx, resp.ApprovalRequest.ID, f.billing, true, "")
	if !errors.Is(err, governance.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}

	var authErr *governance.AuthorizationError
	if !errors.As(err, &authErr) || authErr.UserID != f.billing {
		t.Errorf("err = %v, want AuthorizationError for the billing user", err)
	}
}

func TestProcessApproval_UnknownRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ProcessApproval(context.Background(), "no-such-request", f.director, true, "")
	if err == nil {
		t.Fatal("want error for unknown request")
	}
	var nf *riskgate.RequestNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("err = %v, want RequestNotFoundError", err)
	}
}

func TestHumanOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := action.New(action.AgentIntake, "view_patient")
	if _, err := f.engine.ProcessAction(ctx, a, f.director, "sess-1"); err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}

	if err := f.engine.HumanOverride(ctx, a.ID, f.director, "clinical judgment"); err != nil {
		t.Fatalf("HumanOverride: %v", err)
	}
	entry, err := f.audit.EntryForAction(ctx, a.ID)
	if err != nil {
		t.Fatalf("EntryForAction: %v", err)
	}
	if !entry.HumanOverride {
		t.Error("entry not marked overridden")
	}

	if err := f.engine.HumanOverride(ctx, "missing-action", f.director, "x"); err == nil {
		t.Error("override of unknown action must fail")
	}
}

func TestDashboardData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One completed, one awaiting approval, one escalated.
	if _, err := f.engine.ProcessAction(ctx, action.New(action.AgentIntake, "view_patient"), f.director, "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.ProcessAction(ctx,
		action.New(action.AgentMedication, "medication_change", action.WithConfidence(0.99)),
		f.director, "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.ProcessAction(ctx,
		action.New(action.AgentCarePlanning, "care_plan_update", action.WithConfidence(0.3)),
		f.director, "s"); err != nil {
		t.Fatal(err)
	}

	d, err := f.engine.DashboardData(ctx)
	if err != nil {
		t.Fatalf("DashboardData: %v", err)
	}
	if len(d.PendingApprovals) != 1 {
		t.Errorf("PendingApprovals = %d, want 1", len(d.PendingApprovals))
	}
	if len(d.PendingEscalations) != 1 {
		t.Errorf("PendingEscalations = %d, want 1", len(d.PendingEscalations))
	}
	if d.AuditStatistics.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", d.AuditStatistics.TotalEntries)
	}
	if d.EscalationStatistics.Pending != 1 {
		t.Errorf("escalation Pending = %d, want 1", d.EscalationStatistics.Pending)
	}
	if d.BiasSummary.Threshold != 0.8 {
		t.Errorf("bias threshold = %v, want 0.8", d.BiasSummary.Threshold)
	}
}

func TestUpdateConfiguration_PropagatesThresholds(t *testing.T) {
	f := newFixture(t)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Governance.ConfidenceThreshold = 0.6
	cfg.Bias.DisparateImpactThreshold = 0.9

	if err := f.engine.UpdateConfiguration(cfg); err != nil {
		t.Fatalf("UpdateConfiguration: %v", err)
	}
	if got := f.fallback.ConfidenceThreshold(); got != 0.6 {
		t.Errorf("fallback threshold = %v, want 0.6", got)
	}
	if got := f.bias.Threshold(); got != 0.9 {
		t.Errorf("bias threshold = %v, want 0.9", got)
	}

	// Confidence 0.7 now clears the lowered fallback threshold.
	a := action.New(action.AgentIntake, "view_patient", action.WithConfidence(0.7))
	resp, err := f.engine.ProcessAction(context.Background(), a, f.director, "s")
	if err != nil {
		t.Fatalf("ProcessAction: %v", err)
	}
	if resp.Disposition != governance.DispositionExecuted {
		t.Errorf("Disposition = %s, want EXECUTED after threshold update", resp.Disposition)
	}
}

func TestRegisterHandler_Validation(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.RegisterHandler(action.AgentIntake, "view_patient", nil); err == nil {
		t.Error("nil handler accepted")
	}
	if err := f.engine.RegisterHandler("BOGUS", "view_patient",
		func(ctx context.Context, a *action.Action) (*action.Result, error) { return action.OK(nil), nil }); err == nil {
		t.Error("unknown agent type accepted")
	}
	if err := f.engine.RegisterHandler(action.AgentIntake, "",
		func(ctx context.Context, a *action.Action) (*action.Result, error) { return action.OK(nil), nil }); err == nil {
		t.Error("empty action type accepted")
	}
}
