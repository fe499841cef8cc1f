package fallback

import (
	"errors"
	"fmt"
)

var (
	// ErrEscalationNotFound indicates an unknown escalation id.
	ErrEscalationNotFound = errors.New("escalation not found")

	// ErrEscalationResolved indicates an attempt to act on an already
	// resolved escalation.
	ErrEscalationResolved = errors.New("escalation already resolved")
)

// EscalationNotFoundError carries the missing escalation id.
type EscalationNotFoundError struct {
	ID string
}

func (e *EscalationNotFoundError) Error() string {
	return fmt.Sprintf("escalation %s not found", e.ID)
}

func (e *EscalationNotFoundError) Unwrap() error { return ErrEscalationNotFound }

// InvalidThresholdError indicates a confidence threshold outside [0, 1].
type InvalidThresholdError struct {
	Value float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("confidence threshold %.3f outside [0, 1]", e.Value)
}
