// Package shared contains common domain errors used across the college domain
// and the layers built on top of it. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("duplicate entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// Query contract errors
	ErrNoUniqueResult  = errors.New("required a unique result but found none")
	ErrNonUniqueResult = errors.New("required a unique result but found several")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "subject", "report"
	Op      string // Operation that failed, e.g., "Create", "Aggregate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
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

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
	ErrInvalidStudentID     = NewDomainError("student", "Validate", ErrInvalidID, "student id must be positive")
	ErrEmptyStudentName     = NewDomainError("student", "Validate", ErrEmptyValue, "student name is required")
)

// Subject domain errors
var (
	ErrSubjectNotFound      = NewDomainError("subject", "Find", ErrNotFound, "subject not found")
	ErrSubjectAlreadyExists = NewDomainError("subject", "Create", ErrAlreadyExists, "subject already exists")
	ErrInvalidSubjectID     = NewDomainError("subject", "Validate", ErrInvalidID, "subject id must be positive")
	ErrEmptySubjectName     = NewDomainError("subject", "Validate", ErrEmptyValue, "subject name is required")
)

// Mark and report errors
var (
	ErrNegativeMark    = NewDomainError("mark", "Validate", ErrNegativeValue, "mark cannot be negative")
	ErrInvalidLimit    = NewDomainError("report", "Validate", ErrValueOutOfRange, "number of entries must be positive")
	ErrNoMarksRecorded = NewDomainError("report", "Aggregate", ErrNoUniqueResult, "no marks recorded")
)

// StudentNotFound returns a not-found error that names the missing id.
func StudentNotFound(id int64) error {
	return WrapError("student", "Find", ErrNotFound, fmt.Sprintf("student with id %d does not exist", id), nil)
}

// SubjectNotFound returns a not-found error that names the missing id.
func SubjectNotFound(id int64) error {
	return WrapError("subject", "Find", ErrNotFound, fmt.Sprintf("subject with id %d does not exist", id), nil)
}

// StudentAlreadyExists returns a duplicate error that names the id.
func StudentAlreadyExists(id int64) error {
	return WrapError("student", "Create", ErrAlreadyExists, fmt.Sprintf("student with id %d already exists", id), nil)
}

// SubjectAlreadyExists returns a duplicate error that names the id.
func SubjectAlreadyExists(id int64) error {
	return WrapError("subject", "Create", ErrAlreadyExists, fmt.Sprintf("subject with id %d already exists", id), nil)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsNoUniqueResult checks if a unique-result query produced the wrong number of rows.
func IsNoUniqueResult(err error) bool {
	return errors.Is(err, ErrNoUniqueResult) || errors.Is(err, ErrNonUniqueResult)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
