package riskgate

import (
	"errors"
	"fmt"

	"caretrust-hq/minerva/pkg/action"
)

// ErrNoRuleForRiskLevel signals a configuration-integrity fault: no
// enabled rule exists for a risk level. The default rule set covers every
// level, so this indicates a broken administrative update, not a normal
// runtime condition.
var ErrNoRuleForRiskLevel = errors.New("no enabled rule for risk level")

// ErrRequestNotFound signals an approval decision against an unknown
// request id.
var ErrRequestNotFound = errors.New("approval request not found")

// RuleNotFoundError reports the missing risk level along with
// ErrNoRuleForRiskLevel.
type RuleNotFoundError struct {
	RiskLevel action.RiskLevel
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("no enabled rule for risk level %s", e.RiskLevel)
}

func (e *RuleNotFoundError) Unwrap() error { return ErrNoRuleForRiskLevel }

// RequestNotFoundError reports the unknown request id along with
// ErrRequestNotFound.
type RequestNotFoundError struct {
	RequestID string
}

func (e *RequestNotFoundError) Error() string {
	return fmt.Sprintf("approval request %q not found", e.RequestID)
}

func (e *RequestNotFoundError) Unwrap() error { return ErrRequestNotFound }

// TerminalRequestError reports a decision submitted against a request
// already in a terminal state. Approvals against an APPROVED request are
// treated as no-ops by the manager and do not produce this error;
// decisions against REJECTED or EXPIRED requests do.
type TerminalRequestError struct {
	RequestID string
	Status    ApprovalStatus
}

func (e *TerminalRequestError) Error() string {
	return fmt.Sprintf("approval request %q is already %s", e.RequestID, e.Status)
}
