package flux

import "errors"

// Runtime errors.
var (
	// ErrFrozen indicates a registration after the runtime was frozen.
	ErrFrozen = errors.New("flux: runtime is frozen")

	// ErrDuplicateState indicates a state type was configured twice.
	ErrDuplicateState = errors.New("flux: state already configured")

	// ErrUnknownState indicates a store was requested for an unconfigured state type.
	ErrUnknownState = errors.New("flux: state not configured")

	// ErrNilInitial indicates a state was configured without an initial factory.
	ErrNilInitial = errors.New("flux: nil initial state factory")
)
