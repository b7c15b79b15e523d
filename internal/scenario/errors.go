package scenario

import (
	"errors"
	"fmt"
)

// Scenario errors.
var (
	// ErrInvalid indicates a scenario that fails validation.
	ErrInvalid = errors.New("scenario: invalid")

	// ErrUnknownOp indicates a step with an unsupported op.
	ErrUnknownOp = errors.New("scenario: unknown op")
)

// StepError reports a step that cannot be turned into an action.
type StepError struct {
	Index int
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("scenario: step %d (%s): %v", e.Index, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}
