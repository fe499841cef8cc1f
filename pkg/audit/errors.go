package audit

import (
	"errors"
	"fmt"
)

// ErrEntryNotFound signals an update against an unknown audit entry id.
// Update operations never create an entry as a side effect.
var ErrEntryNotFound = errors.New("audit entry not found")

// ErrEscalationNotFound signals a resolution against an unknown
// escalation id.
var ErrEscalationNotFound = errors.New("escalation not found")

// ErrEscalationResolved signals an attempt to resolve an escalation that
// is already resolved. Resolved escalations cannot be reopened or
// re-resolved.
var ErrEscalationResolved = errors.New("escalation already resolved")

// EntryNotFoundError reports the missing entry id along with
// ErrEntryNotFound.
type EntryNotFoundError struct {
	ID string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("audit entry %q not found", e.ID)
}

func (e *EntryNotFoundError) Unwrap() error { return ErrEntryNotFound }

// EscalationNotFoundError reports the missing escalation id along with
// ErrEscalationNotFound.
type EscalationNotFoundError struct {
	ID string
}

func (e *EscalationNotFoundError) Error() string {
	return fmt.Sprintf("escalation %q not found", e.ID)
}

func (e *EscalationNotFoundError) Unwrap() error { return ErrEscalationNotFound }

// StorageError wraps a backend failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
