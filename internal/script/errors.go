package script

import (
	"errors"
	"fmt"
)

// Script errors.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("script: state is closed")

	// ErrNoFunction indicates the handler function is not defined.
	ErrNoFunction = errors.New("script: handler function not defined")
)

// ScriptError wraps a failure raised while running Lua code.
type ScriptError struct {
	// Function is the Lua function or chunk name.
	Function string
	Err      error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script: %s: %v", e.Function, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
