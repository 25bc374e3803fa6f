package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when an attempt does not exist or is not visible to the caller.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrUnknownRule is returned when an achievement's unlock condition is not a known rule.
	ErrUnknownRule = errors.New("unknown unlock condition")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed input. It is never retried.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DuplicateSubmissionError carries the attempt that a resubmission collided with.
type DuplicateSubmissionError struct {
	AttemptID int64
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("duplicate submission of attempt %d", e.AttemptID)
}

// PersistenceError wraps a failed transaction. Nothing from the failed call is visible.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
