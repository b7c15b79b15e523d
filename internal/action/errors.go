package action

import "errors"

// Action errors.
var (
	// ErrNilAction indicates a nil action was supplied.
	ErrNilAction = errors.New("action: nil action")

	// ErrEmptyTag indicates an action reported an empty tag.
	ErrEmptyTag = errors.New("action: empty tag")

	// ErrNoCreator indicates no creator or factory is registered for a tag.
	ErrNoCreator = errors.New("action: no creator for tag")
)
