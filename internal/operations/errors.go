package operations

import (
	"errors"
	"fmt"
)

// ErrorType classifies an operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// OperationError is the error type every stage failure surfaces as. Step
// identifies the stage that failed; Cause carries the underlying error for
// errors.Is matching against the package sentinels.
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	if e.Step != "" {
		if e.Cause != nil {
			return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Step, e.Message, e.Cause)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError reports a stage that refused to run
func NewValidationError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewExecutionError reports a stage that started and failed
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "stage execution failed",
		Cause:   cause,
	}
}

// NewCancellationError reports an operation stopped by its context
func NewCancellationError(step string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
	}
}

// WrapError lifts a plain error into an OperationError attributed to the
// given stage. An error that already is one passes through with its stage
// filled in if it was missing.
func WrapError(err error, step string) *OperationError {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = step
		}
		return opErr
	}
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "stage execution failed",
		Cause:   err,
	}
}

// GetErrorType returns the classification of an error, defaulting to
// execution for errors raised outside this package
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}
