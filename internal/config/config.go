package config

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/fluxstate/internal/config/loader"
	"github.com/dshills/fluxstate/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "FLUXSTATE_"

// Config holds runtime configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Script     ScriptConfig     `toml:"script"`
}

// DispatcherConfig configures the runtime dispatcher.
type DispatcherConfig struct {
	RecoverFromPanic bool `toml:"recover_from_panic"`
	EnableMetrics    bool `toml:"enable_metrics"`

	// Queue routes every dispatch through a single worker goroutine.
	Queue       bool `toml:"queue"`
	QueueBuffer int  `toml:"queue_buffer"`
}

// ScriptConfig configures Lua middleware.
type ScriptConfig struct {
	// Timeout bounds each script invocation. Zero means no bound.
	Timeout Duration `toml:"timeout"`
}

// Duration is a time.Duration that reads and writes as a TOML string.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Dispatcher: DispatcherConfig{
			RecoverFromPanic: true,
			QueueBuffer:      64,
		},
		Script: ScriptConfig{
			Timeout: Duration(5 * time.Second),
		},
	}
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Dispatcher.QueueBuffer < 0 {
		return fmt.Errorf("%w: dispatcher.queue_buffer must not be negative", ErrInvalidValue)
	}
	if c.Script.Timeout < 0 {
		return fmt.Errorf("%w: script.timeout must not be negative", ErrInvalidValue)
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() logging.Level {
	lvl, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return lvl
}

// Load builds a configuration from defaults, the TOML file at path, and the
// environment. An empty path or a missing file skips the file layer.
func Load(path string) (Config, error) {
	return LoadWith(loader.DefaultFS(), path, loader.NewEnvLoader(EnvPrefix))
}

// LoadWith is Load with an explicit file system and environment loader.
// Each layer is decoded as it is merged, so a bad value is reported against
// the layer that set it.
func LoadWith(fsys loader.FileSystem, path string, env loader.Loader) (Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}

	var layers []loader.Loader
	if path != "" {
		layers = append(layers, loader.NewFile(fsys, path))
	}
	if env != nil {
		layers = append(layers, env)
	}

	cfg := Default()
	for _, l := range layers {
		m, err := l.Load()
		if err != nil {
			return Config{}, err
		}
		if m == nil {
			continue
		}
		merged = loader.DeepMerge(merged, m)

		var next Config
		if err := loader.Decode(l.Layer(), merged, &next); err != nil {
			return Config{}, err
		}
		cfg = next
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// toMap encodes c as the map form used by the loaders.
func toMap(c Config) (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}
