package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUpstream        = "UPSTREAM_FAILURE"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target carries the same code, so contextual variants
// created with NewDomainError still match the sentinels below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError(CodeNotFound, "Resource not found")
	ErrUnauthenticated = NewDomainError(CodeUnauthenticated, "Authentication required")
	ErrForbidden       = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrConflict        = NewDomainError(CodeConflict, "Resource is in a conflicting state")
	ErrAlreadyExists   = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput    = NewDomainError(CodeValidation, "Invalid input provided")
	ErrUpstream        = NewDomainError(CodeUpstream, "External service call failed")
)

// NotFound returns a not-found error naming the missing resource.
func NotFound(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// Forbidden returns a forbidden error with a caller-facing reason.
func Forbidden(reason string) *DomainError {
	return NewDomainError(CodeForbidden, reason)
}

// Conflict returns a conflict error with a caller-facing reason.
func Conflict(reason string) *DomainError {
	return NewDomainError(CodeConflict, reason)
}

// Invalid returns a validation error with a caller-facing reason.
func Invalid(reason string) *DomainError {
	return NewDomainError(CodeValidation, reason)
}

// UpstreamError wraps a failed call to an external collaborator. The cause is
// kept for logging but never reaches the response body.
func UpstreamError(operation string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeUpstream,
		Message: fmt.Sprintf("%s failed", operation),
		cause:   cause,
	}
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
