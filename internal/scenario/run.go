package scenario

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/dshills/fluxstate/internal/config"
	"github.com/dshills/fluxstate/internal/dispatcher"
	"github.com/dshills/fluxstate/internal/document"
	"github.com/dshills/fluxstate/internal/flux"
	"github.com/dshills/fluxstate/internal/logging"
	"github.com/dshills/fluxstate/internal/middleware"
	"github.com/dshills/fluxstate/internal/script"
	"github.com/dshills/fluxstate/internal/store"
)

// RunOptions configures Run.
type RunOptions struct {
	// Config defaults to config.Default when zero.
	Config config.Config
	Logger *logging.Logger

	// FS resolves load steps and script_file. Defaults to the scenario directory.
	FS fs.FS

	// StepDelay pauses before each reduction, for watching a run in the view.
	StepDelay time.Duration

	// Observe is called with the document store before the first step runs.
	Observe func(st *store.Store[document.Document])
}

// Result is the outcome of a run.
type Result struct {
	Document document.Document
	Steps    int
	Metrics  *dispatcher.MetricsSnapshot
}

// newRuntime builds the runtime for one run.
var newRuntime = flux.New

// Run executes the scenario's steps in order against a fresh document store.
// The first failing step stops the run; the returned Result still holds the
// document as it stood at that point. Errors from releasing the runtime are
// appended to the returned error.
func Run(ctx context.Context, s *Scenario, opts RunOptions) (res *Result, err error) {
	if opts.Config == (config.Config{}) {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.FS == nil {
		dir := s.Dir
		if dir == "" {
			dir = "."
		}
		opts.FS = os.DirFS(dir)
	}

	initial, err := s.Document()
	if err != nil {
		return nil, fmt.Errorf("%w: initial: %w", ErrInvalid, err)
	}

	rt := newRuntime(flux.WithConfig(opts.Config), flux.WithLogger(opts.Logger))
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			opts.Logger.Warn("closing runtime: %v", cerr)
			err = multierr.Append(err, cerr)
		}
	}()

	mws, err := buildMiddleware(ctx, rt, s, opts)
	if err != nil {
		return nil, err
	}

	err = flux.ConfigureState(rt, s.Name, func() document.Document { return initial }, func(b *flux.StateBuilder[document.Document]) {
		for _, r := range document.Reducers() {
			b.UseReducer(r)
		}
		for _, m := range mws {
			b.UseMiddleware(m)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := rt.Freeze(); err != nil {
		return nil, err
	}

	st, err := flux.StoreOf[document.Document](rt)
	if err != nil {
		return nil, err
	}
	if opts.Observe != nil {
		opts.Observe(st)
	}

	seq := rt.ChainTo(st)
	for _, step := range s.Steps {
		a, err := step.Action()
		if err != nil {
			return nil, err
		}
		seq.Then(a)
	}

	opts.Logger.Info("running scenario %s: %d steps", s.Name, seq.Len())
	runErr := seq.Execute(ctx)

	res = &Result{Document: st.Current(), Steps: seq.Len()}
	if m := rt.Metrics(); m != nil {
		snap := m.Snapshot()
		res.Metrics = &snap
	}
	return res, runErr
}

// buildMiddleware returns the document middleware, outermost first.
func buildMiddleware(ctx context.Context, rt *flux.Runtime, s *Scenario, opts RunOptions) ([]middleware.Middleware[document.Document], error) {
	logger := opts.Logger.WithComponent("scenario")

	mws := []middleware.Middleware[document.Document]{
		middleware.Recover[document.Document](),
		middleware.Logging[document.Document](logger),
	}

	if s.HasScript() {
		src, err := s.ScriptSource(opts.FS)
		if err != nil {
			return nil, err
		}

		state := script.NewState(script.WithTimeout(opts.Config.Script.Timeout.Std()))
		rt.AddCloser(state)
		if err := state.DoString(ctx, src); err != nil {
			return nil, err
		}

		mws = append(mws, script.Middleware(state, script.Options[document.Document]{
			Tags:     s.Tags(),
			Encode:   document.Encode,
			Creators: rt.Creators(),
			Logger:   logger,
		}))
	}

	mws = append(mws, document.LoaderMiddleware(opts.FS))

	if opts.StepDelay > 0 {
		mws = append(mws, middleware.Delay[document.Document](opts.StepDelay, middleware.AnyTag))
	}
	return mws, nil
}
