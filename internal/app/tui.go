package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/fluxstate/internal/document"
	"github.com/dshills/fluxstate/internal/scenario"
	"github.com/dshills/fluxstate/internal/store"
	"github.com/dshills/fluxstate/internal/view"
)

// runTUI runs the scenario while a panel shows the document. The panel stays
// up after the last step until the user quits; quitting early cancels the run.
func (app *Application) runTUI(ctx context.Context) error {
	screen := app.opts.Screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return &InitError{Component: "screen", Err: err}
		}
	}
	if err := screen.Init(); err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	fini := sync.OnceFunc(screen.Fini)
	defer fini()

	panel := view.NewPanel(screen, filepath.Base(app.opts.ScenarioPath),
		view.TextRenderer(func(d document.Document) string { return string(d.Pretty()) }))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var result *scenario.Result
	var runErr error
	g.Go(func() error {
		result, runErr = app.runScenario(gctx, scenario.RunOptions{
			StepDelay: app.opts.StepDelay,
			Observe:   func(st *store.Store[document.Document]) { panel.Bind(st) },
		})
		status := "done, press q to quit"
		if runErr != nil {
			status = "failed: " + runErr.Error()
		}
		panel.SetStatus(status)
		if result != nil {
			panel.Draw(result.Document)
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return panel.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// The document is printed once the terminal is restored.
	fini()

	if result != nil {
		if err := app.write(result); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
