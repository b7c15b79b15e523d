package app

import (
	"context"
	"path/filepath"

	"github.com/dshills/fluxstate/internal/config/watcher"
)

// watch runs the scenario, then runs it again after every change to the
// scenario or config file until ctx ends. Failed runs are logged.
func (app *Application) watch(ctx context.Context) error {
	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		app.Logger().Warn("watch: %v", err)
	}))
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	defer w.Close()

	changes := make(chan watcher.Event, 1)
	w.OnChange(func(ev watcher.Event) {
		select {
		case changes <- ev:
		default:
		}
	})

	if err := w.Watch(app.opts.ScenarioPath); err != nil {
		return &OperationError{Op: "watch", Target: app.opts.ScenarioPath, Err: err}
	}

	var configPath string
	if app.opts.ConfigPath != "" {
		if err := w.Watch(app.opts.ConfigPath); err != nil {
			return &OperationError{Op: "watch", Target: app.opts.ConfigPath, Err: err}
		}
		configPath, _ = filepath.Abs(app.opts.ConfigPath)
	}

	app.rerun(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-changes:
			app.Logger().Info("%s changed (%s)", ev.Path, ev.Op)
			if ev.Path == configPath {
				app.reloadConfig()
			}
			app.rerun(ctx)
		}
	}
}

func (app *Application) rerun(ctx context.Context) {
	if _, err := app.RunOnce(ctx); err != nil {
		app.Logger().Error("%v", err)
	}
}
