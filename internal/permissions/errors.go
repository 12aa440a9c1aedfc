package permissions

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a referenced publisher, member or modpack
// row does not exist. Callers map it to 404, never to 403.
var ErrNotFound = errors.New("not found")

// ErrInvalidScopeTarget reports a grant/revoke call whose target is
// neither an organization nor a modpack. Raised before any storage is
// touched.
var ErrInvalidScopeTarget = errors.New("invalid scope target: exactly one of publisher or modpack must be set")

// Conflict codes
const (
	CodeOwnerImmutable    = "OWNER_ROLE_IMMUTABLE"
	CodeRoleNotManageable = "ROLE_NOT_MANAGEABLE"
	CodeMemberExists      = "MEMBER_ALREADY_EXISTS"
)

// ConflictError is a role-management rule violation with a stable code
// the HTTP boundary can map to 409 or 403.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func conflict(code, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewConflict builds a ConflictError for callers outside this package.
func NewConflict(code, message string) *ConflictError {
	return &ConflictError{Code: code, Message: message}
}

// AsConflict unwraps err into a ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
