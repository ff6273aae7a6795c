package errors

import (
	"errors"
	"fmt"
)

// Application-specific errors
var (
	ErrRulesNotFound = errors.New("rules document not found")
	ErrRulesInvalid  = errors.New("rules document malformed")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownArea   = errors.New("unknown area")
	ErrNotFound      = errors.New("resource not found")
)

// RulesError represents a failure to load or parse the rules document.
// It is the only error class allowed to propagate out of startup so the
// host can decide between degraded mode and refusing to start.
type RulesError struct {
	Path string
	Err  error
}

func (e RulesError) Error() string {
	return fmt.Sprintf("rules document %s: %v", e.Path, e.Err)
}

func (e RulesError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error `json:"errors"`
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Add adds an error to the MultiError
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}
