package middleware

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/dispatcher"
	"github.com/dshills/fluxstate/internal/logging"
)

// Logging logs every action with its duration and outcome.
func Logging[S any](logger *logging.Logger) Middleware[S] {
	if logger == nil {
		logger = logging.Nop()
	}
	return All(func(ctx context.Context, a action.Action, mc Context[S]) error {
		tag := a.ActionTag()
		log := logger
		if id, ok := dispatcher.CorrelationID(ctx); ok {
			log = logger.WithField("correlation_id", id)
		}

		start := time.Now()
		log.Debug("action %s: start", tag)

		err := mc.Next(ctx, a)
		if err != nil {
			log.Warn("action %s: failed after %s: %v", tag, time.Since(start), err)
			return err
		}

		log.Debug("action %s: done in %s", tag, time.Since(start))
		return nil
	})
}

// PanicError wraps a panic recovered by the Recover middleware.
type PanicError struct {
	Tag   action.Tag
	Value any
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("middleware: panic handling %q: %v", e.Tag, e.Value)
}

// Is reports whether target is ErrPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}

// Recover converts a panic anywhere below it in the chain into an error.
func Recover[S any]() Middleware[S] {
	return All(func(ctx context.Context, a action.Action, mc Context[S]) (err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)
				err = &PanicError{Tag: a.ActionTag(), Value: r, Stack: string(stack[:n])}
			}
		}()
		return mc.Next(ctx, a)
	})
}

// Delay waits d before passing matching actions on.
// The wait ends early with the context error if ctx is done.
func Delay[S any](d time.Duration, pred func(action.Tag) bool) Middleware[S] {
	return When(pred, func(ctx context.Context, a action.Action, mc Context[S]) error {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		return mc.Next(ctx, a)
	})
}

// Filter drops actions for which keep returns false.
// A dropped action reaches neither the dispatcher nor any reducer.
func Filter[S any](keep func(a action.Action, state S) bool) Middleware[S] {
	return All(func(ctx context.Context, a action.Action, mc Context[S]) error {
		if !keep(a, mc.GetState()) {
			return nil
		}
		return mc.Next(ctx, a)
	})
}

// LoadFunc performs the asynchronous work behind a load request.
// A nil result dispatches nothing.
type LoadFunc[A action.Action] func(ctx context.Context, req A) (action.Action, error)

// Loader handles request actions of type A by running load and dispatching
// its result through the store. The request itself does not continue down
// the chain.
func Loader[S any, A action.Action](load LoadFunc[A]) Middleware[S] {
	return For(func(ctx context.Context, req A, mc Context[S]) error {
		result, err := load(ctx, req)
		if err != nil {
			return fmt.Errorf("loading %s: %w", req.ActionTag(), err)
		}
		if result == nil {
			return nil
		}
		return mc.Dispatch(ctx, result)
	})
}
