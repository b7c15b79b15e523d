package loader

import "fmt"

// ParseError reports a configuration layer that could not be read or decoded.
type ParseError struct {
	// Layer is the layer's name: a file path or the environment prefix.
	Layer   string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("config %s: line %d, column %d: %s", e.Layer, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("config %s: %s", e.Layer, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
