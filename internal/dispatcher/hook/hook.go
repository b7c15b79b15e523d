package hook

import (
	"context"
	"time"

	"github.com/dshills/fluxstate/internal/action"
)

// Hook is the base interface for all dispatch hooks.
type Hook interface {
	// Name returns a unique identifier for this hook.
	Name() string

	// Priority returns the hook priority.
	// Higher values run first for pre-hooks, last for post-hooks.
	Priority() int
}

// Outcome describes the result of one dispatch fan-out.
type Outcome struct {
	// Err is the error returned to the dispatch caller, if any.
	Err error

	// Callbacks is the number of callbacks that were invoked.
	Callbacks int

	// Duration is the wall time of the fan-out.
	Duration time.Duration
}

// PreDispatchHook is called before an action is fanned out.
type PreDispatchHook interface {
	Hook
	PreDispatch(ctx context.Context, a action.Action)
}

// PostDispatchHook is called after the fan-out completes or fails.
type PostDispatchHook interface {
	Hook
	PostDispatch(ctx context.Context, a action.Action, out Outcome)
}

// PreDispatchFunc wraps a function as a PreDispatchHook.
type PreDispatchFunc struct {
	name     string
	priority int
	fn       func(ctx context.Context, a action.Action)
}

// NewPreDispatchFunc creates a new PreDispatchFunc hook.
func NewPreDispatchFunc(name string, priority int, fn func(ctx context.Context, a action.Action)) *PreDispatchFunc {
	return &PreDispatchFunc{name: name, priority: priority, fn: fn}
}

// Name implements Hook.
func (f *PreDispatchFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PreDispatchFunc) Priority() int { return f.priority }

// PreDispatch implements PreDispatchHook.
func (f *PreDispatchFunc) PreDispatch(ctx context.Context, a action.Action) {
	if f.fn != nil {
		f.fn(ctx, a)
	}
}

// PostDispatchFunc wraps a function as a PostDispatchHook.
type PostDispatchFunc struct {
	name     string
	priority int
	fn       func(ctx context.Context, a action.Action, out Outcome)
}

// NewPostDispatchFunc creates a new PostDispatchFunc hook.
func NewPostDispatchFunc(name string, priority int, fn func(ctx context.Context, a action.Action, out Outcome)) *PostDispatchFunc {
	return &PostDispatchFunc{name: name, priority: priority, fn: fn}
}

// Name implements Hook.
func (f *PostDispatchFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PostDispatchFunc) Priority() int { return f.priority }

// PostDispatch implements PostDispatchHook.
func (f *PostDispatchFunc) PostDispatch(ctx context.Context, a action.Action, out Outcome) {
	if f.fn != nil {
		f.fn(ctx, a, out)
	}
}

// CombinedHook implements both PreDispatchHook and PostDispatchHook.
type CombinedHook interface {
	PreDispatchHook
	PostDispatchHook
}
