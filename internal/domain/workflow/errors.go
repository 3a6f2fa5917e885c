package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a ficha or related record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a stage move breaks the sequence rule
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrInvalidReturnStage is returned when a rejection target is not earlier than the current stage
	ErrInvalidReturnStage = errors.New("invalid return stage")

	// ErrAlreadyTerminal is returned when a ficha is approved or finally rejected
	ErrAlreadyTerminal = errors.New("ficha is already in a terminal status")

	// ErrConcurrentModification is returned when an optimistic lock check fails
	ErrConcurrentModification = errors.New("ficha was modified concurrently")

	// ErrValidation is returned for malformed input
	ErrValidation = errors.New("validation failed")

	// ErrStorage is returned when persistence fails
	ErrStorage = errors.New("storage failure")
)

// TransitionError describes a rejected stage move
type TransitionError struct {
	From     StageKey
	Target   StageKey
	Expected StageKey
}

func (e *TransitionError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("%s: no stage follows %s", ErrInvalidTransition, e.From)
	}
	return fmt.Sprintf("%s: %s -> %s, expected %s", ErrInvalidTransition, e.From, e.Target, e.Expected)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidationError names the offending input field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a field level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StorageError wraps a persistence failure
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
