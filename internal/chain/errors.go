package chain

import (
	"errors"
	"fmt"

	"github.com/dshills/fluxstate/internal/action"
)

// Chain errors.
var (
	// ErrUnknownCreator indicates a by-tag step found no creator for its tag.
	ErrUnknownCreator = errors.New("chain: unknown creator")

	// ErrNilTarget indicates a sequencer was created without a dispatch target.
	ErrNilTarget = errors.New("chain: nil dispatch target")
)

// StepError reports the step that aborted a chain.
type StepError struct {
	Index int
	Tag   action.Tag
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("chain: step %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("chain: step %d (%s): %v", e.Index, e.Tag, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}
