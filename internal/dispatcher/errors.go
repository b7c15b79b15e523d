package dispatcher

import (
	"errors"
	"fmt"

	"github.com/dshills/fluxstate/internal/action"
)

// Dispatcher errors.
var (
	// ErrInvalidAction indicates a nil action or one with an empty tag.
	ErrInvalidAction = errors.New("dispatcher: invalid action")

	// ErrPanic indicates a callback panicked.
	ErrPanic = errors.New("dispatcher: callback panic")

	// ErrBatchUnsupported indicates the dispatcher cannot dispatch batches.
	ErrBatchUnsupported = errors.New("dispatcher: batch dispatch not supported")

	// ErrQueueStopped indicates the queue dispatcher is not running.
	ErrQueueStopped = errors.New("dispatcher: queue is stopped")
)

// CallbackError reports the callback that aborted a dispatch.
type CallbackError struct {
	Tag   action.Tag
	Index int
	Err   error
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	return fmt.Sprintf("dispatcher: callback %d for %q: %v", e.Index, e.Tag, e.Err)
}

// Unwrap returns the underlying error.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered callback panic.
type PanicError struct {
	Tag   action.Tag
	Value any
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatcher: callback for %q panicked: %v", e.Tag, e.Value)
}

// Is reports whether target is ErrPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}
