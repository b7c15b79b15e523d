package store

import (
	"errors"
	"fmt"

	"github.com/dshills/fluxstate/internal/action"
)

// Store errors.
var (
	// ErrNilInitial indicates a store was created without an initial state factory.
	ErrNilInitial = errors.New("store: nil initial state factory")

	// ErrNilDispatcher indicates a store was created without a dispatcher.
	ErrNilDispatcher = errors.New("store: nil dispatcher")

	// ErrActionType indicates a reducer received an action of the wrong type.
	ErrActionType = errors.New("store: unexpected action type")

	// ErrDispatchInReducer indicates a reducer dispatched into the store it
	// is reducing.
	ErrDispatchInReducer = errors.New("store: dispatch from reducer")
)

// ReduceError reports the reducer that failed a reduction.
type ReduceError struct {
	Store string
	Tag   action.Tag
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ReduceError) Error() string {
	return fmt.Sprintf("store %s: reducer %d for %q: %v", e.Store, e.Index, e.Tag, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReduceError) Unwrap() error {
	return e.Err
}
