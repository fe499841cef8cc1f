package governance

import (
	"context"
	"fmt"
	"time"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/audit"
	"caretrust-hq/minerva/pkg/rbac"
	"caretrust-hq/minerva/pkg/riskgate"
)

// ProcessAction runs one action through the full governance pipeline:
// permission check, subject access check, risk classification, fallback
// evaluation, risk gate, hooks, handler dispatch, and audit recording.
// Every pass records exactly one audit entry whose status matches the
// returned response.
func (e *Engine) ProcessAction(ctx context.Context, a *action.Action, userID, sessionID string) (*Response, error) {
	if a == nil {
		return nil, fmt.Errorf("action cannot be nil")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordAction(string(a.AgentType), string(a.RiskLevel), string(a.Status), time.Since(start))
		}
	}()

	actx := audit.ActionContext{SessionID: sessionID, UserID: userID}

	dec := e.rbac.CheckPermission(userID, a.AgentType, a.ActionType, rbac.CheckOptions{RequireWrite: true})
	if !dec.Allowed {
		if e.metrics != nil {
			e.metrics.RecordPermissionDenial(string(a.AgentType), "permission")
		}
		return e.reject(ctx, a, actx, "Permission denied: "+dec.Reason)
	}

	if a.SubjectID != "" {
		access := e.rbac.CheckPatientAccess(userID, a.SubjectID, rbac.PatientAccessEdit)
		if !access.Allowed {
			e.logAccessDenial(ctx, a, userID, sessionID, access.Reason)
			if e.metrics != nil {
				e.metrics.RecordPermissionDenial(string(a.AgentType), "subject_access")
			}
			return e.reject(ctx, a, actx, "Patient access denied: "+access.Reason)
		}
	}

	a.RiskLevel = riskgate.ClassifyRisk(a)

	if escalate, trigger, reason := e.fallback.EvaluateAction(a); escalate {
		esc, err := e.fallback.TriggerEscalation(a, trigger, reason)
		if err != nil {
			return nil, err
		}
		a.Status = action.StatusEscalated
		entry, err := e.audit.LogAction(ctx, a, actx)
		if err != nil {
			return nil, err
		}
		if err := e.audit.UpdateOutcome(ctx, entry.ID, "Escalated: "+reason, a.Status, nil); err != nil {
			e.logger.Error("Audit outcome update failed", "log_id", entry.ID, "error", err)
		}
		return &Response{
			Disposition:        DispositionEscalated,
			ActionID:           a.ID,
			Status:             a.Status,
			Reason:             reason,
			LogID:              entry.ID,
			Escalation:         esc,
			EscalationRequired: true,
		}, nil
	}

	gr, err := e.gate.EvaluateGate(a)
	if err != nil {
		// No enabled rule for the risk level. A deployment defect, not
		// a governed outcome.
		return nil, err
	}

	if !gr.CanProceed {
		if e.metrics != nil {
			e.metrics.RecordGateDecision(string(a.RiskLevel), "awaiting_approval")
			e.metrics.SetPendingApprovals(len(e.gate.PendingApprovals("")))
		}
		entry, err := e.audit.LogAction(ctx, a, actx)
		if err != nil {
			return nil, err
		}
		return &Response{
			Disposition:     DispositionAwaitingApproval,
			ActionID:        a.ID,
			Status:          a.Status,
			Reason:          gr.Request.Rationale,
			LogID:           entry.ID,
			ApprovalRequest: gr.Request,
		}, nil
	}

	if e.metrics != nil {
		decision := "auto_approved"
		if gr.Notify {
			decision = "notify"
		}
		e.metrics.RecordGateDecision(string(a.RiskLevel), decision)
	}

	resp, err := e.execute(ctx, a, actx)
	if err != nil {
		return nil, err
	}
	resp.Notify = gr.Notify
	return resp, nil
}

// reject records the denial as the pass's single audit entry and returns
// a REJECTED response.
func (e *Engine) reject(ctx context.Context, a *action.Action, actx audit.ActionContext, reason string) (*Response, error) {
	a.Status = action.StatusRejected
	entry, err := e.audit.LogAction(ctx, a, actx)
	if err != nil {
		return nil, err
	}
	if err := e.audit.UpdateOutcome(ctx, entry.ID, reason, a.Status, nil); err != nil {
		e.logger.Error("Audit outcome update failed", "log_id", entry.ID, "error", err)
	}

	e.logger.Warn("Action rejected",
		"action_id", a.ID,
		"action_type", a.ActionType,
		"user_id", actx.UserID,
		"reason", reason,
	)
	return &Response{
		Disposition: DispositionRejected,
		ActionID:    a.ID,
		Status:      a.Status,
		Reason:      reason,
		LogID:       entry.ID,
	}, nil
}

// logAccessDenial records the denied PHI access attempt in the access
// trail. Failures are logged, not surfaced; the pipeline still records
// its audit entry.
func (e *Engine) logAccessDenial(ctx context.Context, a *action.Action, userID, sessionID, reason string) {
	role := ""
	if u, ok := e.rbac.GetUser(userID); ok {
		role = string(u.Role)
	}
	_, err := e.audit.LogAccess(ctx, audit.AccessLog{
		UserID:       userID,
		UserRole:     role,
		PatientID:    a.SubjectID,
		ResourceType: "patient_record",
		Action:       a.ActionType,
		Success:      false,
		Reason:       reason,
		SessionID:    sessionID,
	})
	if err != nil {
		e.logger.Error("Access denial log failed", "patient_id", a.SubjectID, "error", err)
	}
}

// execute runs hooks and the registered handler, then records the audit
// entry with the final outcome. No engine lock is held across hook or
// handler execution.
func (e *Engine) execute(ctx context.Context, a *action.Action, actx audit.ActionContext) (*Response, error) {
	pre, post := e.hooks()

	a.Status = action.StatusInProgress
	e.runHooks(ctx, "pre", pre, a)

	var result *action.Result
	if h := e.handler(a.AgentType, a.ActionType); h != nil {
		result = e.invokeHandler(ctx, h, a)
	} else {
		result = action.OK(map[string]any{"message": "Action processed (no specific handler)"})
	}

	e.runHooks(ctx, "post", post, a)

	outcome := "SUCCESS"
	disposition := DispositionExecuted
	a.Status = action.StatusCompleted
	if !result.Success {
		outcome = result.Error
		disposition = DispositionExecutionFailed
		a.Status = action.StatusFailed
	}

	entry, err := e.audit.LogAction(ctx, a, actx)
	if err != nil {
		return nil, err
	}
	if err := e.audit.UpdateOutcome(ctx, entry.ID, outcome, a.Status, nil); err != nil {
		e.logger.Error("Audit outcome update failed", "log_id", entry.ID, "error", err)
	}

	e.logger.Info("Action executed",
		"action_id", a.ID,
		"action_type", a.ActionType,
		"agent_type", string(a.AgentType),
		"status", string(a.Status),
	)
	return &Response{
		Disposition: disposition,
		ActionID:    a.ID,
		Status:      a.Status,
		LogID:       entry.ID,
		Result:      result,
	}, nil
}

// ProcessApproval records one approver's decision on a pending request.
// The approver must hold approve capability for the request's agent
// type. On full consensus the original action is reconstructed and
// executed through the same handler dispatch path as ProcessAction.
func (e *Engine) ProcessApproval(ctx context.Context, requestID, approverID string, approved bool, reason string) (*Response, error) {
	req, ok := e.gate.GetRequest(requestID)
	if !ok {
		return nil, &riskgate.RequestNotFoundError{RequestID: requestID}
	}

	dec := e.rbac.CheckPermission(approverID, req.AgentType, req.ActionType, rbac.CheckOptions{RequireApprove: true})
	if !dec.Allowed {
		e.logger.Warn("Approval attempt refused",
			"request_id", requestID,
			"approver_id", approverID,
			"reason", dec.Reason,
		)
		return nil, &AuthorizationError{UserID: approverID, Reason: dec.Reason}
	}

	if approved && req.Status == riskgate.ApprovalApproved {
		// Consensus was already reached and the action executed then.
		// A repeat approval is an idempotent no-op.
		return &Response{
			Disposition:     DispositionExecuted,
			ActionID:        req.ActionID,
			Status:          action.StatusApproved,
			Reason:          "request already fully approved",
			ApprovalRequest: &req,
		}, nil
	}

	done, err := e.gate.ProcessApproval(requestID, approverID, approved, reason)
	if e.metrics != nil {
		decision := "approved"
		if !approved {
			decision = "rejected"
		}
		e.metrics.RecordApprovalDecision(decision)
		e.metrics.SetPendingApprovals(len(e.gate.PendingApprovals("")))
	}
	if err != nil {
		return nil, err
	}

	updated, _ := e.gate.GetRequest(requestID)

	if !approved {
		return &Response{
			Disposition:     DispositionRejected,
			ActionID:        req.ActionID,
			Status:          action.StatusRejected,
			Reason:          reason,
			ApprovalRequest: &updated,
		}, nil
	}
	if !done {
		return &Response{
			Disposition:     DispositionAwaitingApproval,
			ActionID:        req.ActionID,
			Status:          action.StatusAwaitingApproval,
			ApprovalRequest: &updated,
		}, nil
	}

	a := &action.Action{
		ID:         req.ActionID,
		AgentType:  req.AgentType,
		ActionType: req.ActionType,
		Parameters: req.Details,
		SubjectID:  req.SubjectID,
		RiskLevel:  req.RiskLevel,
		Confidence: req.Confidence,
		Rationale:  req.Rationale,
		Status:     action.StatusApproved,
		Timestamp:  time.Now().UTC(),
	}
	if a.Parameters == nil {
		a.Parameters = make(map[string]any)
	}

	start := time.Now()
	resp, err := e.execute(ctx, a, audit.ActionContext{
		UserID:    approverID,
		SessionID: "approval:" + requestID,
	})
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordAction(string(a.AgentType), string(a.RiskLevel), string(a.Status), time.Since(start))
	}
	resp.ApprovalRequest = &updated
	return resp, nil
}

// HumanOverride marks the audit entry for an action as overridden by a
// human reviewer.
func (e *Engine) HumanOverride(ctx context.Context, actionID, by, reason string) error {
	entry, err := e.audit.EntryForAction(ctx, actionID)
	if err != nil {
		return err
	}
	return e.audit.RecordOverride(ctx, entry.ID, by, reason)
}
