package config

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/dshills/fluxstate/internal/config/loader"
	"github.com/dshills/fluxstate/internal/logging"
)

type memFS map[string]string

func (m memFS) Open(name string) (fs.File, error) { return nil, fs.ErrNotExist }

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

// mapLoader is a fixed environment layer.
type mapLoader map[string]any

func (m mapLoader) Layer() string { return "env test" }

func (m mapLoader) Load() (map[string]any, error) { return m, nil }

func TestDefault(t *testing.T) {
	c := Default()

	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !c.Dispatcher.RecoverFromPanic {
		t.Error("expected panic recovery by default")
	}
	if c.Level() != logging.LevelInfo {
		t.Errorf("expected info level, got %v", c.Level())
	}
	if c.Script.Timeout.Std() != 5*time.Second {
		t.Errorf("expected 5s script timeout, got %v", c.Script.Timeout.Std())
	}
}

func TestLoadWithoutFile(t *testing.T) {
	c, err := LoadWith(memFS{}, "", nil)
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if c != Default() {
		t.Errorf("expected defaults, got %+v", c)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, err := LoadWith(memFS{}, "/nope.toml", nil)
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if c != Default() {
		t.Errorf("expected defaults, got %+v", c)
	}
}

func TestLoadLayers(t *testing.T) {
	fsys := memFS{"/fluxstate.toml": `
log_level = "debug"

[dispatcher]
enable_metrics = true
queue_buffer = 8

[script]
timeout = "2s"
`}
	env := mapLoader{
		"dispatcher": map[string]any{"queue_buffer": int64(32), "queue": true},
	}

	c, err := LoadWith(fsys, "/fluxstate.toml", env)
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}

	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
	if !c.Dispatcher.EnableMetrics {
		t.Error("expected metrics enabled from file")
	}
	if !c.Dispatcher.RecoverFromPanic {
		t.Error("expected default recover_from_panic to survive the merge")
	}
	if c.Dispatcher.QueueBuffer != 32 || !c.Dispatcher.Queue {
		t.Errorf("expected env to override the file, got %+v", c.Dispatcher)
	}
	if c.Script.Timeout.Std() != 2*time.Second {
		t.Errorf("Script.Timeout = %v, want 2s", c.Script.Timeout.Std())
	}
}

func TestLoadEnvDuration(t *testing.T) {
	env := mapLoader{"script": map[string]any{"timeout": "150ms"}}

	c, err := LoadWith(memFS{}, "", env)
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if c.Script.Timeout.Std() != 150*time.Millisecond {
		t.Errorf("Script.Timeout = %v, want 150ms", c.Script.Timeout.Std())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		want error
	}{
		{"bad level", `log_level = "loud"`, logging.ErrInvalidLevel},
		{"negative buffer", "[dispatcher]\nqueue_buffer = -1", ErrInvalidValue},
		{"bad duration", "[script]\ntimeout = \"soon\"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWith(memFS{"/c.toml": tt.file}, "/c.toml", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadErrorNamesLayer(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		env   mapLoader
		layer string
		line  int
	}{
		{"file syntax", "log_level = \n", nil, "/c.toml", 1},
		{"file type", "[dispatcher]\nqueue_buffer = \"big\"", nil, "/c.toml", 0},
		{"env type", "", mapLoader{"dispatcher": map[string]any{"queue": "maybe"}}, "env test", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env loader.Loader
			if tt.env != nil {
				env = tt.env
			}
			_, err := LoadWith(memFS{"/c.toml": tt.file}, "/c.toml", env)

			var pe *loader.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *loader.ParseError, got %v", err)
			}
			if pe.Layer != tt.layer {
				t.Errorf("Layer = %q, want %q", pe.Layer, tt.layer)
			}
			if tt.line > 0 && pe.Line != tt.line {
				t.Errorf("Line = %d, want %d", pe.Line, tt.line)
			}
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, _ := d.MarshalText()
	if string(b) != "1m30s" {
		t.Errorf("MarshalText = %q, want 1m30s", b)
	}
}
