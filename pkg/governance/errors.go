package governance

import (
	"errors"
	"fmt"
)

// ErrNotAuthorized is the sentinel wrapped by AuthorizationError.
var ErrNotAuthorized = errors.New("not authorized")

// AuthorizationError reports an approver acting outside their
// permission profile. Action-level denials are not errors; they are
// rejected Responses.
type AuthorizationError struct {
	UserID string
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %q not authorized: %s", e.UserID, e.Reason)
}

func (e *AuthorizationError) Unwrap() error { return ErrNotAuthorized }
