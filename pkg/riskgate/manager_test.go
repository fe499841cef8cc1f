package riskgate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"caretrust-hq/minerva/pkg/action"
)

func newAction(t *testing.T, actionType string, confidence float64) *action.Action {
	t.Helper()
	return action.New(action.AgentMedication, actionType, action.WithConfidence(confidence))
}

// TestClassifyRisk covers the tier membership sets and the LOW default.
func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		actionType string
		want       action.RiskLevel
	}{
		{"code_blue_activation", action.RiskCritical},
		{"critical_biomarker_alert", action.RiskCritical},
		{"medication_change", action.RiskHigh},
		{"discharge_decision", action.RiskHigh},
		{"care_plan_update", action.RiskMedium},
		{"order_entry", action.RiskMedium},
		{"register_patient", action.RiskLow},
		{"", action.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.actionType, func(t *testing.T) {
			a := newAction(t, tt.actionType, 0.9)
			if got := ClassifyRisk(a); got != tt.want {
				t.Errorf("ClassifyRisk(%q) = %s, want %s", tt.actionType, got, tt.want)
			}
		})
	}
}

// TestManager_EvaluateGate_LowAutoApproves verifies confident LOW actions
// pass with no approval request.
func TestManager_EvaluateGate_LowAutoApproves(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "register_patient", 0.9)

	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if !res.CanProceed || res.Request != nil {
		t.Errorf("LOW action should auto-approve, got CanProceed=%v Request=%v", res.CanProceed, res.Request)
	}
	if a.Status != action.StatusApproved {
		t.Errorf("Status = %s, want APPROVED", a.Status)
	}
	if a.RiskLevel != action.RiskLow {
		t.Errorf("RiskLevel = %s, want LOW", a.RiskLevel)
	}
}

// TestManager_EvaluateGate_MediumNotifies verifies MEDIUM auto-approves
// with the supervisor notification flag.
func TestManager_EvaluateGate_MediumNotifies(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "care_plan_update", 0.9)

	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if !res.CanProceed {
		t.Fatal("confident MEDIUM action should proceed")
	}
	if !res.Notify {
		t.Error("MEDIUM auto-approval should carry the notification flag")
	}
}

// TestManager_EvaluateGate_CriticalAlwaysBlocks verifies CRITICAL blocks
// regardless of confidence.
func TestManager_EvaluateGate_CriticalAlwaysBlocks(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "emergency_escalation", 0.99)

	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if res.CanProceed || res.Request == nil {
		t.Fatal("CRITICAL action must always require approval")
	}
	if res.Request.RequiredApprovers != 2 {
		t.Errorf("RequiredApprovers = %d, want 2", res.Request.RequiredApprovers)
	}
	if res.Request.Priority != PriorityUrgent {
		t.Errorf("Priority = %s, want URGENT", res.Request.Priority)
	}
	if a.Status != action.StatusAwaitingApproval {
		t.Errorf("Status = %s, want AWAITING_APPROVAL", a.Status)
	}
}

// TestManager_EvaluateGate_HighRisk verifies the medication_change scenario:
// HIGH risk, one approver, HIGH priority even at high confidence.
func TestManager_EvaluateGate_HighRisk(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "medication_change", 0.99)

	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if res.CanProceed || res.Request == nil {
		t.Fatal("HIGH action must require approval")
	}
	if res.Request.RequiredApprovers != 1 {
		t.Errorf("RequiredApprovers = %d, want 1", res.Request.RequiredApprovers)
	}
	if res.Request.Priority != PriorityHigh {
		t.Errorf("Priority = %s, want HIGH", res.Request.Priority)
	}
	if a.RiskLevel != action.RiskHigh {
		t.Errorf("RiskLevel = %s, want HIGH", a.RiskLevel)
	}
}

// TestManager_EvaluateGate_LowConfidence verifies a confidence below the
// rule threshold forces approval with the LOW_CONFIDENCE reason.
func TestManager_EvaluateGate_LowConfidence(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "register_patient", 0.3)

	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if res.CanProceed || res.Request == nil {
		t.Fatal("low-confidence action must require approval")
	}
	if res.Request.Rationale[:len(ReasonLowConfidence)] != ReasonLowConfidence {
		t.Errorf("Rationale = %q, want LOW_CONFIDENCE prefix", res.Request.Rationale)
	}
}

// TestManager_ProcessApproval_Consensus walks a two-approver consensus.
func TestManager_ProcessApproval_Consensus(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "code_blue_activation", 0.99)
	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	reqID := res.Request.ID

	done, err := m.ProcessApproval(reqID, "approver-1", true, "")
	if err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	if done {
		t.Fatal("one of two approvals should not reach consensus")
	}

	// Duplicate approver does not advance the counter.
	done, err = m.ProcessApproval(reqID, "approver-1", true, "")
	if err != nil || done {
		t.Fatalf("duplicate approval should be a no-op, got done=%v err=%v", done, err)
	}

	done, err = m.ProcessApproval(reqID, "approver-2", true, "")
	if err != nil {
		t.Fatalf("second approval failed: %v", err)
	}
	if !done {
		t.Fatal("second distinct approval should reach consensus")
	}

	req, ok := m.GetRequest(reqID)
	if !ok {
		t.Fatal("GetRequest failed")
	}
	if req.Status != ApprovalApproved || req.CurrentApprovals != 2 {
		t.Errorf("request = %s with %d approvals, want APPROVED with 2", req.Status, req.CurrentApprovals)
	}

	// Approval on an already-approved request is an idempotent no-op.
	done, err = m.ProcessApproval(reqID, "approver-3", true, "")
	if err != nil {
		t.Fatalf("approval on approved request errored: %v", err)
	}
	if !done {
		t.Error("approval on approved request should report approved")
	}
	req, _ = m.GetRequest(reqID)
	if req.CurrentApprovals != 2 {
		t.Errorf("counter advanced past threshold: %d", req.CurrentApprovals)
	}
}

// TestManager_ProcessApproval_RejectionTerminal verifies rejection wins
// over prior partial approvals and cannot be undone.
func TestManager_ProcessApproval_RejectionTerminal(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "code_blue_activation", 0.99)
	res, _ := m.EvaluateGate(a)
	reqID := res.Request.ID

	if _, err := m.ProcessApproval(reqID, "approver-1", true, ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if _, err := m.ProcessApproval(reqID, "approver-2", false, "unsafe dosage"); err != nil {
		t.Fatalf("rejection failed: %v", err)
	}

	req, _ := m.GetRequest(reqID)
	if req.Status != ApprovalRejected {
		t.Fatalf("Status = %s, want REJECTED", req.Status)
	}
	if req.RejectedBy != "approver-2" || req.RejectionReason != "unsafe dosage" {
		t.Errorf("rejection details lost: %+v", req)
	}

	// No subsequent approval resurrects a rejected request.
	done, err := m.ProcessApproval(reqID, "approver-3", true, "")
	if done {
		t.Error("approval after rejection must not succeed")
	}
	var terminal *TerminalRequestError
	if !errors.As(err, &terminal) {
		t.Errorf("expected TerminalRequestError, got %v", err)
	}
	req, _ = m.GetRequest(reqID)
	if req.Status != ApprovalRejected {
		t.Errorf("Status = %s after late approval, want REJECTED", req.Status)
	}
}

// TestManager_ProcessApproval_Concurrent verifies consensus is reached
// exactly once under concurrent approvals.
func TestManager_ProcessApproval_Concurrent(t *testing.T) {
	m := NewManager(nil)
	a := newAction(t, "code_blue_activation", 0.99)
	res, _ := m.EvaluateGate(a)
	reqID := res.Request.ID

	const approvers = 8
	var wg sync.WaitGroup
	consensus := make(chan bool, approvers)

	for i := 0; i < approvers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			done, err := m.ProcessApproval(reqID, fmt.Sprintf("approver-%d", n), true, "")
			if err != nil {
				t.Errorf("approval %d errored: %v", n, err)
				return
			}
			consensus <- done
		}(i)
	}
	wg.Wait()
	close(consensus)

	req, _ := m.GetRequest(reqID)
	if req.Status != ApprovalApproved {
		t.Fatalf("Status = %s, want APPROVED", req.Status)
	}
	if req.CurrentApprovals != req.RequiredApprovers {
		t.Errorf("counter overshot: %d approvals for threshold %d", req.CurrentApprovals, req.RequiredApprovers)
	}
}

// TestManager_ProcessApproval_NotFound verifies the unknown-request path.
func TestManager_ProcessApproval_NotFound(t *testing.T) {
	m := NewManager(nil)
	_, err := m.ProcessApproval("missing", "approver-1", true, "")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

// TestManager_PendingApprovals verifies filtering and ordering.
func TestManager_PendingApprovals(t *testing.T) {
	m := NewManager(nil)

	med := newAction(t, "medication_change", 0.99)
	m.EvaluateGate(med)

	intake := action.New(action.AgentIntake, "emergency_escalation", action.WithConfidence(0.99))
	res, _ := m.EvaluateGate(intake)

	all := m.PendingApprovals("")
	if len(all) != 2 {
		t.Fatalf("expected 2 pending approvals, got %d", len(all))
	}

	filtered := m.PendingApprovals(action.AgentIntake)
	if len(filtered) != 1 || filtered[0].ID != res.Request.ID {
		t.Errorf("agent filter returned wrong set: %v", filtered)
	}

	// Resolve one; it drops out of the pending list.
	if _, err := m.ProcessApproval(res.Request.ID, "a", false, "no"); err != nil {
		t.Fatalf("rejection failed: %v", err)
	}
	if got := len(m.PendingApprovals("")); got != 1 {
		t.Errorf("expected 1 pending approval after rejection, got %d", got)
	}
}

// TestManager_AddRule verifies replacement preserves the one-enabled-rule
// invariant.
func TestManager_AddRule(t *testing.T) {
	m := NewManager(nil)

	id, err := m.AddRule(GovernanceRule{
		Name:                "strict_high",
		RiskLevel:           action.RiskHigh,
		ConfidenceThreshold: 0.95,
		RequiresApproval:    true,
		RequiredApprovers:   3,
		Enabled:             true,
	})
	if err != nil {
		t.Fatalf("AddRule failed: %v", err)
	}

	enabled := 0
	for _, r := range m.Rules() {
		if r.Enabled && r.RiskLevel == action.RiskHigh {
			enabled++
			if r.ID != id {
				t.Errorf("old HIGH rule still enabled: %s", r.Name)
			}
		}
	}
	if enabled != 1 {
		t.Fatalf("expected exactly 1 enabled HIGH rule, got %d", enabled)
	}

	a := newAction(t, "medication_change", 0.99)
	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if res.Request == nil || res.Request.RequiredApprovers != 3 {
		t.Errorf("new rule not in effect: %+v", res.Request)
	}
}

// TestManager_UpdateRule_CannotOrphanLevel verifies the disable guard.
func TestManager_UpdateRule_CannotOrphanLevel(t *testing.T) {
	m := NewManager(nil)

	var highID string
	for _, r := range m.Rules() {
		if r.RiskLevel == action.RiskHigh {
			highID = r.ID
		}
	}

	disabled := false
	if err := m.UpdateRule(highID, RuleUpdate{Enabled: &disabled}); err == nil {
		t.Error("disabling the only enabled rule for a level should fail")
	}

	threshold := 0.99
	if err := m.UpdateRule(highID, RuleUpdate{ConfidenceThreshold: &threshold}); err != nil {
		t.Fatalf("UpdateRule failed: %v", err)
	}
	a := newAction(t, "medication_change", 0.98)
	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if res.Request == nil || res.Request.Rationale[:len(ReasonLowConfidence)] != ReasonLowConfidence {
		t.Error("raised threshold should force a LOW_CONFIDENCE request")
	}
}

// TestManager_ApplyRulesFile verifies YAML overrides load and apply.
func TestManager_ApplyRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
rules:
  - name: strict_critical
    risk_level: CRITICAL
    confidence_threshold: 0.99
    requires_approval: true
    required_approvers: 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	m := NewManager(nil)
	if err := m.ApplyRulesFile(path); err != nil {
		t.Fatalf("ApplyRulesFile failed: %v", err)
	}

	a := newAction(t, "code_blue_activation", 0.995)
	res, err := m.EvaluateGate(a)
	if err != nil {
		t.Fatalf("EvaluateGate failed: %v", err)
	}
	if res.Request == nil || res.Request.RequiredApprovers != 3 {
		t.Errorf("override not applied: %+v", res.Request)
	}
}

// TestLoadRulesFile_Invalid covers parse and validation failures.
func TestLoadRulesFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("rules:\n  - name: x\n    risk_level: SEVERE\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := LoadRulesFile(bad); err == nil {
		t.Error("invalid risk level should fail")
	}

	if _, err := LoadRulesFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
