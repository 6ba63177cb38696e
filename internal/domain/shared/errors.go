// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Access errors
	ErrUnknownAdmin = errors.New("unknown admin")
	ErrForbidden    = errors.New("forbidden")

	// Dataset errors
	ErrSchemaValidation = errors.New("schema validation failed")
	ErrEmptyDataset     = errors.New("dataset contains no usable rows")

	// Refinement errors. Never surfaced past the parsing boundary: any
	// refinement failure falls back to the rule-based intent.
	ErrRefinementUnavailable = errors.New("refinement unavailable")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "admin", "roster", "query"
	Op      string // Operation that failed, e.g., "Resolve", "Load"
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

// Admin domain errors
var (
	ErrAdminNotRegistered = NewDomainError("admin", "Resolve", ErrUnknownAdmin, "admin is not in the registry")
	ErrEmptyAdminID       = NewDomainError("admin", "Validate", ErrEmptyValue, "admin id cannot be empty")
	ErrInvalidRegion      = NewDomainError("admin", "Validate", ErrInvalidInput, "invalid region")
)

// Roster domain errors
var (
	ErrMissingColumns  = NewDomainError("roster", "Load", ErrSchemaValidation, "required columns are missing")
	ErrNoUsableRows    = NewDomainError("roster", "Load", ErrEmptyDataset, "all rows were rejected during validation")
	ErrInvalidGrade    = NewDomainError("roster", "Validate", ErrValueOutOfRange, "grade must be between 1 and 12")
	ErrInvalidClass    = NewDomainError("roster", "Validate", ErrInvalidFormat, "class code must be a grade number followed by a letter")
	ErrEmptyName       = NewDomainError("roster", "Validate", ErrEmptyValue, "student name cannot be empty")
	ErrTableNotLoaded  = NewDomainError("roster", "Current", ErrNotFound, "no roster snapshot has been loaded")
	ErrInvalidRowDate  = NewDomainError("roster", "Normalize", ErrInvalidFormat, "row has an unparseable date")
	ErrInvalidRowScore = NewDomainError("roster", "Normalize", ErrInvalidFormat, "row has a non-numeric quiz score")
)

// Query domain errors
var (
	ErrInvalidDateRange = NewDomainError("query", "Validate", ErrInvalidInput, "date range start is after end")
	ErrUnknownAction    = NewDomainError("query", "Validate", ErrInvalidInput, "unknown intent action")
	ErrEmptyQuestion    = NewDomainError("query", "Validate", ErrEmptyValue, "question cannot be empty")
)

// Refinement errors
var (
	ErrRefinerDisabled        = NewDomainError("refine", "Refine", ErrRefinementUnavailable, "refinement is disabled")
	ErrRefinerTimeout         = NewDomainError("refine", "Refine", ErrTimeout, "refinement provider timed out")
	ErrRefinerInvalidResponse = NewDomainError("refine", "Parse", ErrInvalidFormat, "refinement provider returned an unusable response")
	ErrRefinerUnavailable     = NewDomainError("refine", "Request", ErrServiceUnavailable, "refinement provider is unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnknownAdmin checks if the error rejects an unregistered admin identity.
func IsUnknownAdmin(err error) bool {
	return errors.Is(err, ErrUnknownAdmin)
}

// IsSchemaValidation checks if the error is a dataset schema failure.
func IsSchemaValidation(err error) bool {
	return errors.Is(err, ErrSchemaValidation) || errors.Is(err, ErrEmptyDataset)
}

// IsRefinementUnavailable checks if the error means the refinement hook
// cannot be used and the rule-based intent must stand.
func IsRefinementUnavailable(err error) bool {
	return errors.Is(err, ErrRefinementUnavailable) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
