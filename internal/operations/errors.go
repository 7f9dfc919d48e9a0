package operations

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of step error
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// StepError wraps the error that aborted a run with the step that raised it
type StepError struct {
	Type  ErrorType
	Step  string
	Cause error
}

// Error implements the error interface
func (e *StepError) Error() string {
	if e == nil {
		return "unknown step error"
	}
	if e.Cause == nil {
		return fmt.Sprintf("step %s: %s", e.Step, e.Type)
	}
	return fmt.Sprintf("step %s: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying error
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewExecutionError wraps a step failure
func NewExecutionError(step string, cause error) *StepError {
	return &StepError{Type: ErrorTypeExecution, Step: step, Cause: cause}
}

// NewCancellationError reports a run cancelled before step started
func NewCancellationError(step string, cause error) *StepError {
	return &StepError{Type: ErrorTypeCancellation, Step: step, Cause: cause}
}

// FailedStep returns the ID of the step that aborted the run, if err carries one
func FailedStep(err error) (string, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}
