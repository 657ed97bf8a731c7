package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors that can occur during evaluation operations.
var (
	// ErrEmptyValue indicates that a required value is empty or nil.
	ErrEmptyValue = errors.New("empty value")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrPromptNotFound indicates that a prompt present in one condition has
	// no counterpart in the other.
	ErrPromptNotFound = errors.New("prompt not found")
)

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures and optionally wraps a
// sentinel so callers can match it with errors.Is.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string

	// Err is the sentinel describing the class of failure, if any.
	Err error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	if len(e.Errors) == 0 && e.Err != nil {
		return fmt.Sprintf("validation error for %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap returns the wrapped sentinel, supporting errors.Is.
func (e *ValidationError) Unwrap() error { return e.Err }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}

// WrapValidationError creates a ValidationError for entity that wraps err
// and carries the given messages.
func WrapValidationError(entity string, err error, msgs ...string) *ValidationError {
	verr := NewValidationError(entity)
	verr.Err = err
	for _, m := range msgs {
		verr.AddError(m)
	}
	return verr
}

// AlignmentError is returned when paired conditions cannot be lined up
// prompt by prompt.
type AlignmentError struct {
	// PromptID is the prompt that has no counterpart.
	PromptID string

	// Condition names the condition the prompt is missing from.
	Condition Condition

	// Suggestions lists near-miss prompt ids found in that condition.
	Suggestions []string
}

// Error implements the error interface for AlignmentError.
func (e *AlignmentError) Error() string {
	msg := fmt.Sprintf("alignment error: prompt %q missing from %s ratings", e.PromptID, e.Condition)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// Unwrap reports ErrPromptNotFound so callers can use errors.Is.
func (e *AlignmentError) Unwrap() error { return ErrPromptNotFound }
