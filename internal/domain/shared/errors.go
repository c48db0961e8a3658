// Package shared contains error kinds and helpers used by all domain packages.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	ErrValidation    = errors.New("validation error")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")

	ErrUnauthorized = errors.New("unauthorized")

	// ErrRemoteService covers transport failures, unexpected statuses and
	// undecodable bodies from the adaptive learning service.
	ErrRemoteService      = errors.New("remote service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "adaptive", "course"
	Op      string // operation that failed, e.g. "NewConfiguration"
	Kind    error  // base error for errors.Is() checks
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both Kind and Err.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Adaptive learning errors
var (
	ErrStudentNotFound              = NewDomainError("adaptive", "FindStudent", ErrNotFound, "student not found")
	ErrKnowledgeNodeStudentNotFound = NewDomainError("adaptive", "FindKnowledgeNodeStudent", ErrNotFound, "knowledge node student not found")
	ErrInvalidConfiguration         = NewDomainError("adaptive", "NewConfiguration", ErrValidation, "invalid adaptive learning configuration")
	ErrInvalidResult                = NewDomainError("adaptive", "ResultPayload", ErrInvalidInput, "result must be correct or incorrect")
	ErrInvalidUsageKey              = NewDomainError("adaptive", "ParseUsageKey", ErrInvalidFormat, "invalid usage key")
	ErrInvalidCourseKey             = NewDomainError("adaptive", "ParseCourseKey", ErrInvalidFormat, "invalid course key")
)

// Course catalog errors
var (
	ErrCourseNotFound      = NewDomainError("course", "Find", ErrNotFound, "course not found")
	ErrCourseNotConfigured = NewDomainError("course", "Configuration", ErrValidation, "course has no adaptive learning configuration")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsRemoteService checks if the error came from the adaptive learning service.
func IsRemoteService(err error) bool {
	return errors.Is(err, ErrRemoteService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
