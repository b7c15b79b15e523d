package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File loads the TOML configuration file layer.
type File struct {
	fs   FileSystem
	path string
}

// NewFile creates a loader for the TOML file at path.
func NewFile(fsys FileSystem, path string) *File {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &File{fs: fsys, path: path}
}

// Layer returns the file path.
func (f *File) Layer() string {
	return f.path
}

// Load reads and parses the file. A missing file yields nil, nil.
func (f *File) Load() (map[string]any, error) {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", f.path, err)
	}

	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, parseError(f.path, err)
	}
	return m, nil
}

// Decode decodes a merged layer map into v. Errors name layer.
func Decode(layer string, m map[string]any, v any) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return &ParseError{Layer: layer, Message: err.Error(), Err: err}
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return &ParseError{Layer: layer, Message: err.Error(), Err: err}
	}
	return nil
}

// parseError converts a go-toml error, keeping the position when it has one.
func parseError(layer string, err error) *ParseError {
	pe := &ParseError{Layer: layer, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	return pe
}
