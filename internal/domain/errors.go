package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestion indicates that a roster source could not be parsed into
	// (rank, name) pairs. Terminal for the analysis run.
	ErrIngestion = errors.New("ingestion failed")

	// ErrColumnsNotFound indicates that no rank-like column was detected in an
	// uploaded workbook. Reported distinctly from generic ingestion failure.
	ErrColumnsNotFound = errors.New("rank column not found")

	// ErrAnchorNotFound indicates that the insertion anchor row is missing
	// from the destination sheet.
	ErrAnchorNotFound = errors.New("anchor row not found")

	// ErrMutation indicates a structural read/write error while producing the
	// output workbook. Non-fatal for the analysis result.
	ErrMutation = errors.New("workbook mutation failed")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IngestionError provides details about a failed roster source.
type IngestionError struct {
	Source  RosterSource
	Message string
}

// Error implements the error interface.
func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for %s: %s", e.Source, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *IngestionError) Unwrap() error {
	return ErrIngestion
}

// MutationError provides details about a failed workbook mutation.
type MutationError struct {
	Stage string
	Cause error
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	return fmt.Sprintf("workbook mutation failed at %s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MutationError) Unwrap() error {
	return ErrMutation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewIngestionError creates a new IngestionError.
func NewIngestionError(source RosterSource, message string) *IngestionError {
	return &IngestionError{
		Source:  source,
		Message: message,
	}
}

// NewMutationError creates a new MutationError.
func NewMutationError(stage string, cause error) *MutationError {
	return &MutationError{
		Stage: stage,
		Cause: cause,
	}
}
