// Package app wires configuration, logging and scenario execution together
// for the fluxstate command.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/fluxstate/internal/config"
	"github.com/dshills/fluxstate/internal/logging"
	"github.com/dshills/fluxstate/internal/scenario"
)

// DefaultStepDelay is the pause between steps in TUI mode.
const DefaultStepDelay = 300 * time.Millisecond

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// ScenarioPath is the scenario file to run.
	ScenarioPath string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// Watch re-runs the scenario whenever it or the config file changes.
	Watch bool

	// TUI shows the document in a terminal view while steps apply.
	TUI bool

	// StepDelay is the pause between steps in TUI mode.
	StepDelay time.Duration

	// Output receives the final document. Defaults to stdout.
	Output io.Writer

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// Screen is the terminal used by TUI mode. Defaults to tcell.NewScreen.
	Screen tcell.Screen
}

// Application runs scenarios.
type Application struct {
	opts Options

	mu     sync.RWMutex
	cfg    config.Config
	logger *logging.Logger

	running atomic.Bool
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.StepDelay == 0 {
		opts.StepDelay = DefaultStepDelay
	}

	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap loads configuration and builds the logger.
func (app *Application) bootstrap() error {
	cfg, err := app.loadConfig()
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Level(),
		Output: app.opts.LogOutput,
		Prefix: "fluxstate",
	})

	app.mu.Lock()
	app.cfg = cfg
	app.logger = logger
	app.mu.Unlock()
	return nil
}

func (app *Application) loadConfig() (config.Config, error) {
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if app.opts.LogLevel != "" {
		cfg.LogLevel = app.opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// reloadConfig re-reads the config file and applies its log level.
// A bad file keeps the previous configuration.
func (app *Application) reloadConfig() {
	cfg, err := app.loadConfig()
	if err != nil {
		app.Logger().Warn("keeping previous config: %v", err)
		return
	}

	app.mu.Lock()
	app.cfg = cfg
	app.logger.SetLevel(cfg.Level())
	app.mu.Unlock()
}

// Config returns the active configuration.
func (app *Application) Config() config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.logger
}

// Run executes the scenario according to the options.
// Blocks until the run completes, or until ctx ends in watch or TUI mode.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if app.opts.ScenarioPath == "" {
		return ErrNoScenario
	}

	switch {
	case app.opts.TUI:
		return app.runTUI(ctx)
	case app.opts.Watch:
		return app.watch(ctx)
	}

	_, err := app.RunOnce(ctx)
	return err
}

// RunOnce loads the scenario, runs it and writes the final document.
// A failed run still writes the document as it stood when the run stopped.
func (app *Application) RunOnce(ctx context.Context) (*scenario.Result, error) {
	res, err := app.runScenario(ctx, scenario.RunOptions{})
	if res != nil {
		if werr := app.write(res); werr != nil && err == nil {
			err = werr
		}
	}
	return res, err
}

func (app *Application) runScenario(ctx context.Context, opts scenario.RunOptions) (*scenario.Result, error) {
	sc, err := scenario.Load(app.opts.ScenarioPath)
	if err != nil {
		return nil, &OperationError{Op: "load", Target: app.opts.ScenarioPath, Err: err}
	}

	opts.Config = app.Config()
	opts.Logger = app.Logger()

	start := time.Now()
	res, err := scenario.Run(ctx, sc, opts)
	if res != nil {
		app.Logger().Info("scenario %s: %d steps in %v", sc.Name, res.Steps, time.Since(start))
	}
	if err != nil {
		return res, &OperationError{Op: "run", Target: sc.Name, Err: err}
	}
	return res, nil
}

// write prints the final document.
func (app *Application) write(res *scenario.Result) error {
	if _, err := fmt.Fprintf(app.opts.Output, "%s", res.Document.Pretty()); err != nil {
		return &OperationError{Op: "write", Err: err}
	}
	return nil
}

// Shutdown flushes the logger.
func (app *Application) Shutdown() {
	_ = app.Logger().Sync() // best-effort; stderr may not support sync
}
