package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context. The presentation layer maps
// each code to exactly one response status.
const (
	CodeValidation        = "VALIDATION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeConflict          = "CONFLICT"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL"
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

// Unwrap exposes the underlying storage or runtime error, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any NOT_FOUND error.
// INSUFFICIENT_STOCK is a kind of VALIDATION and also matches ErrValidation.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	if t.Code == CodeValidation && e.Code == CodeInsufficientStock {
		return true
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or out-of-range input
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewInsufficientStockError reports that a batch or product cannot cover a request
func NewInsufficientStockError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInsufficientStock, fmt.Sprintf(format, args...))
}

// NewConflictError reports a state-transition violation or unique-key clash
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing referenced entity
func NewNotFoundError(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// NewForbiddenError reports that the caller's role may not perform an operation
func NewForbiddenError(format string, args ...any) *DomainError {
	return NewDomainError(CodeForbidden, fmt.Sprintf(format, args...))
}

// NewInternalError wraps an unexpected failure. The message stays generic;
// the cause is only reachable through errors.Unwrap for logging.
func NewInternalError(cause error) *DomainError {
	return &DomainError{
		Code:    CodeInternal,
		Message: "Internal server error",
		cause:   cause,
	}
}

// WithCause attaches an underlying error without changing code or message
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, cause: cause}
}

// Common domain errors
var (
	ErrValidation        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInsufficientStock = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrConflict          = NewDomainError(CodeConflict, "Operation conflicts with current state")
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrForbidden         = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInternal          = NewDomainError(CodeInternal, "Internal server error")
)

// CodeOf returns the code of err if it is a DomainError, CodeInternal for
// any other error and "" for nil
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
