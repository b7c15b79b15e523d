package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/document"
)

// Step ops.
const (
	OpSet      = "set"
	OpSetRaw   = "set_raw"
	OpDelete   = "delete"
	OpReplace  = "replace"
	OpLoad     = "load"
	OpDispatch = "dispatch"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name    string `toml:"name" yaml:"name"`
	Initial string `toml:"initial" yaml:"initial"`

	// Script is inline Lua; ScriptFile names a file beside the scenario.
	Script     string   `toml:"script" yaml:"script"`
	ScriptFile string   `toml:"script_file" yaml:"script_file"`
	ScriptTags []string `toml:"script_tags" yaml:"script_tags"`

	Steps []Step `toml:"steps" yaml:"steps"`

	// Dir is the directory relative paths resolve against.
	Dir string `toml:"-" yaml:"-"`
}

// Step is one scenario step.
type Step struct {
	Op      string         `toml:"op" yaml:"op"`
	Path    string         `toml:"path" yaml:"path"`
	Value   any            `toml:"value" yaml:"value"`
	JSON    string         `toml:"json" yaml:"json"`
	File    string         `toml:"file" yaml:"file"`
	Tag     string         `toml:"tag" yaml:"tag"`
	Payload map[string]any `toml:"payload" yaml:"payload"`
}

// Format is a scenario file syntax.
type Format int

// Scenario formats.
const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatOf picks the format from a file extension. Anything but .yaml and
// .yml is TOML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// Parse decodes and validates a TOML scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	return ParseFormat(data, FormatTOML)
}

// ParseFormat decodes and validates a scenario in the given format.
// Unknown keys are rejected.
func ParseFormat(data []byte, format Format) (*Scenario, error) {
	var s Scenario

	var err error
	if format == FormatYAML {
		err = decodeYAML(data, &s)
	} else {
		err = decodeTOML(data, &s)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeTOML(data []byte, s *Scenario) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("%w: line %d column %d: %s", ErrInvalid, row, col, derr.Error())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func decodeYAML(data []byte, s *Scenario) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Load reads and parses the scenario at path, choosing the format by extension.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseFormat(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

// Validate checks the initial document, script settings and every step.
func (s *Scenario) Validate() error {
	if _, err := s.Document(); err != nil {
		return fmt.Errorf("%w: initial: %w", ErrInvalid, err)
	}
	if s.Script != "" && s.ScriptFile != "" {
		return fmt.Errorf("%w: script and script_file are exclusive", ErrInvalid)
	}
	for i, st := range s.Steps {
		if _, err := st.Action(); err != nil {
			return &StepError{Index: i, Op: st.Op, Err: err}
		}
	}
	return nil
}

// Document returns the initial document.
func (s *Scenario) Document() (document.Document, error) {
	return document.ParseString(s.Initial)
}

// HasScript reports whether the scenario carries Lua middleware.
func (s *Scenario) HasScript() bool {
	return s.Script != "" || s.ScriptFile != ""
}

// ScriptSource returns the Lua source, reading ScriptFile from fsys.
func (s *Scenario) ScriptSource(fsys fs.FS) (string, error) {
	if s.ScriptFile == "" {
		return s.Script, nil
	}
	data, err := fs.ReadFile(fsys, s.ScriptFile)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

// Tags returns ScriptTags as action tags.
func (s *Scenario) Tags() []action.Tag {
	tags := make([]action.Tag, len(s.ScriptTags))
	for i, t := range s.ScriptTags {
		tags[i] = action.Tag(t)
	}
	return tags
}

// Action converts the step to the action it dispatches.
func (st Step) Action() (action.Action, error) {
	switch st.Op {
	case OpSet:
		if st.Path == "" {
			return nil, document.ErrEmptyPath
		}
		return document.Set{Path: st.Path, Value: st.Value}, nil
	case OpSetRaw:
		if st.Path == "" {
			return nil, document.ErrEmptyPath
		}
		if _, err := document.ParseString(st.JSON); err != nil {
			return nil, err
		}
		return document.SetRaw{Path: st.Path, JSON: st.JSON}, nil
	case OpDelete:
		if st.Path == "" {
			return nil, document.ErrEmptyPath
		}
		return document.Delete{Path: st.Path}, nil
	case OpReplace:
		if _, err := document.ParseString(st.JSON); err != nil {
			return nil, err
		}
		return document.Replace{JSON: st.JSON}, nil
	case OpLoad:
		if st.File == "" {
			return nil, fmt.Errorf("%w: load needs a file", ErrInvalid)
		}
		return document.Load{File: st.File, Path: st.Path}, nil
	case OpDispatch:
		if st.Tag == "" {
			return nil, action.ErrEmptyTag
		}
		return action.Named{Name: action.Tag(st.Tag), Payload: st.Payload}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownOp, st.Op)
}
