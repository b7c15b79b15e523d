package document

import "errors"

// Document errors.
var (
	// ErrInvalidJSON indicates input that is not a single valid JSON value.
	ErrInvalidJSON = errors.New("document: invalid JSON")

	// ErrEmptyPath indicates an edit without a path.
	ErrEmptyPath = errors.New("document: empty path")

	// ErrBadPayload indicates an untyped action whose payload cannot be decoded.
	ErrBadPayload = errors.New("document: bad payload")
)
