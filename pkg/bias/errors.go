package bias

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData indicates too few samples overall or per group
	// for a statistically meaningful comparison.
	ErrInsufficientData = errors.New("insufficient data for bias analysis")

	// ErrEventNotFound indicates an unknown compliance event id.
	ErrEventNotFound = errors.New("compliance event not found")
)

// InsufficientDataError carries the sample counts that blocked an
// analysis.
type InsufficientDataError struct {
	Total     int
	Protected int
	Reference int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: total=%d protected=%d reference=%d",
		e.Total, e.Protected, e.Reference)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// EventNotFoundError carries the missing event id.
type EventNotFoundError struct {
	ID string
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("compliance event %s not found", e.ID)
}

func (e *EventNotFoundError) Unwrap() error { return ErrEventNotFound }

// InvalidRemediationStatusError indicates a status outside the
// remediation lifecycle.
type InvalidRemediationStatusError struct {
	Status string
}

func (e *InvalidRemediationStatusError) Error() string {
	return fmt.Sprintf("invalid remediation status %q", e.Status)
}
