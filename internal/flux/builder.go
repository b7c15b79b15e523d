package flux

import (
	"context"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/middleware"
	"github.com/dshills/fluxstate/internal/store"
)

// StateBuilder collects the reducers, middleware and change handlers of one
// state container. Middleware keeps the order of registration across
// UseMiddleware and HandleAction calls.
type StateBuilder[S any] struct {
	reducers   []store.Reducer[S]
	middleware []middleware.Middleware[S]
	handlers   []store.ChangeHandler[S]
}

// UseReducer binds a reducer.
func (b *StateBuilder[S]) UseReducer(r store.Reducer[S]) *StateBuilder[S] {
	b.reducers = append(b.reducers, r)
	return b
}

// UseMiddleware appends middleware, usually predicate-based.
func (b *StateBuilder[S]) UseMiddleware(m middleware.Middleware[S]) *StateBuilder[S] {
	b.middleware = append(b.middleware, m)
	return b
}

// OnChange registers a change handler on the built store.
func (b *StateBuilder[S]) OnChange(h store.ChangeHandler[S]) *StateBuilder[S] {
	b.handlers = append(b.handlers, h)
	return b
}

// ActionBuilder binds reducers and middleware for actions of type A.
type ActionBuilder[S any, A action.Action] struct {
	state *StateBuilder[S]
}

// Tag returns the tag of A.
func (ab *ActionBuilder[S, A]) Tag() action.Tag {
	return action.TagOf[A]()
}

// UseReducer binds a pure reducer.
func (ab *ActionBuilder[S, A]) UseReducer(fn func(a A, s S) S) *ActionBuilder[S, A] {
	ab.state.UseReducer(store.ReducerFunc(fn))
	return ab
}

// UseStateReducer binds a reducer that ignores the action payload.
func (ab *ActionBuilder[S, A]) UseStateReducer(fn func(s S) S) *ActionBuilder[S, A] {
	ab.state.UseReducer(store.StateReducerFunc[S, A](fn))
	return ab
}

// UseAsyncReducer binds a reducer that may block or fail.
func (ab *ActionBuilder[S, A]) UseAsyncReducer(fn func(ctx context.Context, a A, s S) (S, error)) *ActionBuilder[S, A] {
	ab.state.UseReducer(store.AsyncReducerFunc(fn))
	return ab
}

// UseMiddleware binds a middleware function to A.
func (ab *ActionBuilder[S, A]) UseMiddleware(fn func(ctx context.Context, a A, mc middleware.Context[S]) error) *ActionBuilder[S, A] {
	ab.state.UseMiddleware(middleware.For(fn))
	return ab
}

// HandleAction groups the registrations for action type A.
func HandleAction[S any, A action.Action](b *StateBuilder[S], configure func(ab *ActionBuilder[S, A])) {
	configure(&ActionBuilder[S, A]{state: b})
}
