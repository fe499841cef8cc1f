package riskgate

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"caretrust-hq/minerva/pkg/action"
)

// approvalEntry pairs a request with its own mutex so consensus updates
// on one request serialize without blocking unrelated requests.
type approvalEntry struct {
	mu      sync.Mutex
	request *ApprovalRequest
}

// Manager evaluates risk-tiered gates for agent actions and tracks the
// approval requests those gates create. All methods are safe for
// concurrent use.
type Manager struct {
	logger *slog.Logger

	mu        sync.RWMutex
	rules     map[string]*GovernanceRule
	approvals map[string]*approvalEntry
}

// NewManager creates a manager seeded with the default rule set:
// LOW auto-executes, MEDIUM auto-executes with supervisor notification,
// HIGH requires one approver, CRITICAL requires two.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		logger:    logger.With("component", "riskgate"),
		rules:     make(map[string]*GovernanceRule),
		approvals: make(map[string]*approvalEntry),
	}
	for _, r := range DefaultRules() {
		rule := r
		m.rules[rule.ID] = &rule
	}
	return m
}

// DefaultRules returns the built-in per-risk-level rule set.
func DefaultRules() []GovernanceRule {
	now := time.Now().UTC()
	return []GovernanceRule{
		{
			ID:                  uuid.NewString(),
			Name:                "low_risk_auto_execute",
			Description:         "Auto-execute low-risk administrative tasks",
			RiskLevel:           action.RiskLow,
			ConfidenceThreshold: 0.7,
			Enabled:             true,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		{
			ID:                  uuid.NewString(),
			Name:                "medium_risk_notify",
			Description:         "Execute with supervisor notification",
			RiskLevel:           action.RiskMedium,
			ConfidenceThreshold: 0.85,
			AutoEscalate:        true,
			Enabled:             true,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		{
			ID:                  uuid.NewString(),
			Name:                "high_risk_approval",
			Description:         "Require human approval for high-risk actions",
			RiskLevel:           action.RiskHigh,
			ConfidenceThreshold: 0.90,
			RequiresApproval:    true,
			RequiredApprovers:   1,
			Enabled:             true,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		{
			ID:                  uuid.NewString(),
			Name:                "critical_multi_approval",
			Description:         "Require multi-person approval for critical actions",
			RiskLevel:           action.RiskCritical,
			ConfidenceThreshold: 0.95,
			RequiresApproval:    true,
			RequiredApprovers:   2,
			Enabled:             true,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
	}
}

// GateResult is the outcome of a gate evaluation. When CanProceed is
// false, Request describes the approval the action now waits on.
type GateResult struct {
	CanProceed bool
	Request    *ApprovalRequest

	// Notify is set when the auto-approving rule carries the supervisor
	// notification flag (MEDIUM risk by default).
	Notify bool
}

// EvaluateGate decides whether an action may proceed through its risk
// gate. A missing risk level is classified in place. The action's status
// is set to APPROVED on pass or AWAITING_APPROVAL when a request is
// created.
func (m *Manager) EvaluateGate(a *action.Action) (GateResult, error) {
	if !a.RiskLevel.Valid() {
		a.RiskLevel = ClassifyRisk(a)
	}

	rule, err := m.ruleForRiskLevel(a.RiskLevel)
	if err != nil {
		return GateResult{}, err
	}

	if a.Confidence < rule.ConfidenceThreshold {
		m.logger.Warn("Action confidence below threshold",
			"action_id", a.ID,
			"confidence", a.Confidence,
			"threshold", rule.ConfidenceThreshold,
		)
		return GateResult{Request: m.createApprovalRequest(a, rule, ReasonLowConfidence)}, nil
	}

	if rule.RequiresApproval {
		return GateResult{Request: m.createApprovalRequest(a, rule, ReasonRiskLevel)}, nil
	}

	a.Status = action.StatusApproved
	if rule.AutoEscalate {
		m.logger.Info("Action approved with supervisor notification",
			"action_id", a.ID,
			"risk_level", string(a.RiskLevel),
		)
		return GateResult{CanProceed: true, Notify: true}, nil
	}
	return GateResult{CanProceed: true}, nil
}

// ruleForRiskLevel returns the single enabled rule for a risk level.
func (m *Manager) ruleForRiskLevel(level action.RiskLevel) (GovernanceRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rules {
		if r.Enabled && r.RiskLevel == level {
			return *r, nil
		}
	}
	return GovernanceRule{}, &RuleNotFoundError{RiskLevel: level}
}

// createApprovalRequest builds and registers an approval request for a
// blocked action, marking the action AWAITING_APPROVAL.
func (m *Manager) createApprovalRequest(a *action.Action, rule GovernanceRule, reason string) *ApprovalRequest {
	priority := PriorityHigh
	if a.RiskLevel == action.RiskCritical {
		priority = PriorityUrgent
	}

	required := rule.RequiredApprovers
	if required < 1 {
		required = 1
	}

	req := &ApprovalRequest{
		ID:                uuid.NewString(),
		ActionID:          a.ID,
		AgentType:         a.AgentType,
		ActionType:        a.ActionType,
		SubjectID:         a.SubjectID,
		RiskLevel:         a.RiskLevel,
		Confidence:        a.Confidence,
		Rationale:         fmt.Sprintf("%s: %s", reason, a.Rationale),
		Details:           a.Parameters,
		RequiredApprovers: required,
		Status:            ApprovalPending,
		Priority:          priority,
		CreatedAt:         time.Now().UTC(),
	}

	m.mu.Lock()
	m.approvals[req.ID] = &approvalEntry{request: req}
	m.mu.Unlock()

	a.Status = action.StatusAwaitingApproval

	m.logger.Info("Created approval request",
		"request_id", req.ID,
		"action_id", a.ID,
		"reason", reason,
		"required_approvers", required,
		"priority", string(priority),
	)
	return snapshotRequest(req)
}

// ProcessApproval records one approver's decision. It returns true only
// on the call that reaches full consensus. Decisions are serialized per
// request, so concurrent approvals cannot overshoot the threshold.
//
// Terminal-state handling: an approval against an already-APPROVED
// request is an idempotent no-op returning true; any decision against a
// REJECTED or EXPIRED request returns a TerminalRequestError. A repeat
// approval from the same approver does not advance the counter.
func (m *Manager) ProcessApproval(requestID, approverID string, approved bool, reason string) (bool, error) {
	m.mu.RLock()
	entry, ok := m.approvals[requestID]
	m.mu.RUnlock()
	if !ok {
		m.logger.Error("Approval request not found", "request_id", requestID)
		return false, &RequestNotFoundError{RequestID: requestID}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	req := entry.request

	if req.Status == ApprovalApproved {
		if approved {
			return true, nil
		}
		return false, &TerminalRequestError{RequestID: requestID, Status: req.Status}
	}
	if req.Terminal() {
		return false, &TerminalRequestError{RequestID: requestID, Status: req.Status}
	}

	if !approved {
		req.Status = ApprovalRejected
		req.RejectedBy = approverID
		req.RejectionReason = reason
		m.logger.Info("Approval request rejected",
			"request_id", requestID,
			"rejected_by", approverID,
		)
		return false, nil
	}

	for _, id := range req.ApprovedBy {
		if id == approverID {
			return false, nil // duplicate approver, consensus unchanged
		}
	}

	req.ApprovedBy = append(req.ApprovedBy, approverID)
	req.CurrentApprovals++

	if req.CurrentApprovals >= req.RequiredApprovers {
		req.Status = ApprovalApproved
		m.logger.Info("Approval request fully approved", "request_id", requestID)
		return true, nil
	}

	m.logger.Info("Approval request partially approved",
		"request_id", requestID,
		"current", req.CurrentApprovals,
		"required", req.RequiredApprovers,
	)
	return false, nil
}

// GetRequest returns a copy of an approval request.
func (m *Manager) GetRequest(requestID string) (ApprovalRequest, bool) {
	m.mu.RLock()
	entry, ok := m.approvals[requestID]
	m.mu.RUnlock()
	if !ok {
		return ApprovalRequest{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return *snapshotRequest(entry.request), true
}

// PendingApprovals returns copies of all PENDING requests, newest first,
// optionally filtered by agent type. Pass "" for no filter.
func (m *Manager) PendingApprovals(agentType action.AgentType) []ApprovalRequest {
	m.mu.RLock()
	entries := make([]*approvalEntry, 0, len(m.approvals))
	for _, e := range m.approvals {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	var out []ApprovalRequest
	for _, e := range entries {
		e.mu.Lock()
		req := e.request
		if req.Status == ApprovalPending && (agentType == "" || req.AgentType == agentType) {
			out = append(out, *snapshotRequest(req))
		}
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// AddRule registers a custom governance rule. When the rule is enabled,
// any previously enabled rule for the same risk level is disabled so
// evaluation always sees exactly one enabled rule per level.
func (m *Manager) AddRule(rule GovernanceRule) (string, error) {
	if !rule.RiskLevel.Valid() {
		return "", fmt.Errorf("invalid risk level %q", rule.RiskLevel)
	}
	if rule.ConfidenceThreshold < 0 || rule.ConfidenceThreshold > 1 {
		return "", fmt.Errorf("confidence threshold must be in [0, 1]")
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()

	if rule.Enabled {
		for _, r := range m.rules {
			if r.Enabled && r.RiskLevel == rule.RiskLevel {
				r.Enabled = false
				r.UpdatedAt = now
			}
		}
	}
	m.rules[rule.ID] = &rule

	m.logger.Info("Added governance rule",
		"rule_id", rule.ID,
		"name", rule.Name,
		"risk_level", string(rule.RiskLevel),
	)
	return rule.ID, nil
}

// UpdateRule applies a partial update to an existing rule. Disabling the
// only enabled rule for a level is rejected to preserve the one-rule-per-
// level invariant.
func (m *Manager) UpdateRule(ruleID string, update RuleUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, ok := m.rules[ruleID]
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}

	if update.Enabled != nil && !*update.Enabled && rule.Enabled {
		others := 0
		for _, r := range m.rules {
			if r.ID != ruleID && r.Enabled && r.RiskLevel == rule.RiskLevel {
				others++
			}
		}
		if others == 0 {
			return fmt.Errorf("cannot disable the only enabled rule for risk level %s", rule.RiskLevel)
		}
	}

	if update.Name != nil {
		rule.Name = *update.Name
	}
	if update.Description != nil {
		rule.Description = *update.Description
	}
	if update.ConfidenceThreshold != nil {
		if *update.ConfidenceThreshold < 0 || *update.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence threshold must be in [0, 1]")
		}
		rule.ConfidenceThreshold = *update.ConfidenceThreshold
	}
	if update.RequiresApproval != nil {
		rule.RequiresApproval = *update.RequiresApproval
	}
	if update.RequiredApprovers != nil {
		rule.RequiredApprovers = *update.RequiredApprovers
	}
	if update.AutoEscalate != nil {
		rule.AutoEscalate = *update.AutoEscalate
	}
	if update.Enabled != nil {
		rule.Enabled = *update.Enabled
	}
	rule.UpdatedAt = time.Now().UTC()

	m.logger.Info("Updated governance rule", "rule_id", ruleID, "name", rule.Name)
	return nil
}

// Rules returns copies of all registered rules sorted by risk level then
// name.
func (m *Manager) Rules() []GovernanceRule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]GovernanceRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RiskLevel != out[j].RiskLevel {
			return out[i].RiskLevel < out[j].RiskLevel
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// snapshotRequest returns a copy safe to hand to callers.
func snapshotRequest(req *ApprovalRequest) *ApprovalRequest {
	c := *req
	c.ApprovedBy = append([]string(nil), req.ApprovedBy...)
	return &c
}
