package store

import (
	"context"
	"fmt"

	"github.com/dshills/fluxstate/internal/action"
)

// Reducer folds one action into a state value.
type Reducer[S any] interface {
	// Tag returns the tag of the actions the reducer handles.
	Tag() action.Tag

	// Reduce returns the state that results from applying a to s.
	Reduce(ctx context.Context, a action.Action, s S) (S, error)
}

type reducer[S any] struct {
	tag action.Tag
	fn  func(ctx context.Context, a action.Action, s S) (S, error)
}

func (r *reducer[S]) Tag() action.Tag { return r.tag }

func (r *reducer[S]) Reduce(ctx context.Context, a action.Action, s S) (S, error) {
	return r.fn(ctx, a, s)
}

// typedReduce adapts a typed reduce function to the untyped signature.
func typedReduce[S any, A action.Action](fn func(ctx context.Context, a A, s S) (S, error)) func(context.Context, action.Action, S) (S, error) {
	return func(ctx context.Context, a action.Action, s S) (S, error) {
		ta, ok := a.(A)
		if !ok {
			return s, fmt.Errorf("%w: got %T, want %T", ErrActionType, a, *new(A))
		}
		return fn(ctx, ta, s)
	}
}

// ReducerFunc adapts a pure function of action and state.
func ReducerFunc[S any, A action.Action](fn func(a A, s S) S) Reducer[S] {
	return &reducer[S]{
		tag: action.TagOf[A](),
		fn: typedReduce(func(_ context.Context, a A, s S) (S, error) {
			return fn(a, s), nil
		}),
	}
}

// StateReducerFunc adapts a pure function of state alone. It is bound to the
// tag of A but never looks at the action's payload.
func StateReducerFunc[S any, A action.Action](fn func(s S) S) Reducer[S] {
	return &reducer[S]{
		tag: action.TagOf[A](),
		fn: func(_ context.Context, _ action.Action, s S) (S, error) {
			return fn(s), nil
		},
	}
}

// AsyncReducerFunc adapts a function that may block or fail.
func AsyncReducerFunc[S any, A action.Action](fn func(ctx context.Context, a A, s S) (S, error)) Reducer[S] {
	return &reducer[S]{
		tag: action.TagOf[A](),
		fn:  typedReduce(fn),
	}
}

// Bind adapts an untyped function to an explicit tag, for actions such as
// action.Named whose tag is not fixed by their type.
func Bind[S any](tag action.Tag, fn func(ctx context.Context, a action.Action, s S) (S, error)) Reducer[S] {
	return &reducer[S]{tag: tag, fn: fn}
}
