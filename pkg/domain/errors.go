package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for transport mapping.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindForbidden         ErrorKind = "forbidden"
	KindConsistency       ErrorKind = "consistency"
)

// Generic error codes. Bounded contexts define their own codes on top of these.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeInvalidTransition = "invalid_transition"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
)

// DomainError is the error type shared by all layers. Kind drives the HTTP
// status, Code is the stable machine-readable identifier and Message is safe
// to show to end users. Details carry operator-facing context and the wrapped
// cause never leaves the process.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]string
	cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error { return e.cause }

// WithCause attaches an underlying error and returns the receiver.
func (e *DomainError) WithCause(err error) *DomainError {
	e.cause = err
	return e
}

// WithDetail adds an operator-facing detail and returns the receiver.
func (e *DomainError) WithDetail(key, value string) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a DomainError with an explicit kind and code.
func New(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *DomainError {
	return New(KindValidation, CodeValidation, message)
}

// NewNotFoundError creates a not-found error for the given entity.
func NewNotFoundError(entity, id string) *DomainError {
	return New(KindNotFound, CodeNotFound, fmt.Sprintf("%s %s not found", entity, id))
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *DomainError {
	return New(KindConflict, CodeConflict, message)
}

// NewInvalidStateError creates an error for a disallowed status transition.
func NewInvalidStateError(from, to string) *DomainError {
	return New(KindInvalidTransition, CodeInvalidTransition,
		fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// NewUnauthorizedError creates an unauthorized error.
func NewUnauthorizedError(message string) *DomainError {
	return New(KindUnauthorized, CodeUnauthorized, message)
}

// NewForbiddenError creates a forbidden error.
func NewForbiddenError(message string) *DomainError {
	return New(KindForbidden, CodeForbidden, message)
}

// AsDomainError extracts a DomainError from the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err carries a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == kind
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}
