package middleware

import (
	"context"
	"errors"

	"github.com/dshills/fluxstate/internal/action"
)

// ErrPanic indicates a middleware or downstream step panicked and was recovered
// by the Recover middleware.
var ErrPanic = errors.New("middleware: panic")

// Next is one step of a dispatch pipeline.
type Next func(ctx context.Context, a action.Action) error

// Context gives a middleware access to the rest of the pipeline.
type Context[S any] struct {
	next     Next
	dispatch Next
	getState func() S
}

// NewContext builds a middleware context.
func NewContext[S any](next, dispatch Next, getState func() S) Context[S] {
	return Context[S]{next: next, dispatch: dispatch, getState: getState}
}

// Next continues with the remainder of the chain.
func (c Context[S]) Next(ctx context.Context, a action.Action) error {
	return c.next(ctx, a)
}

// Dispatch runs a new action through the owning store's full pipeline.
func (c Context[S]) Dispatch(ctx context.Context, a action.Action) error {
	return c.dispatch(ctx, a)
}

// GetState returns the store's current state at the time of the call.
func (c Context[S]) GetState() S {
	return c.getState()
}

// Middleware intercepts actions on their way to the dispatcher.
type Middleware[S any] interface {
	// AppliesTo reports whether the middleware participates in the chain for tag.
	AppliesTo(tag action.Tag) bool

	// Handle processes the action.
	Handle(ctx context.Context, a action.Action, mc Context[S]) error
}

// HandlerFunc handles an untyped action.
type HandlerFunc[S any] func(ctx context.Context, a action.Action, mc Context[S]) error

// typed binds a handler to the tag of one action type.
type typed[S any, A action.Action] struct {
	tag action.Tag
	fn  func(ctx context.Context, a A, mc Context[S]) error
}

// For returns a middleware bound to the tag of action type A.
// An action of another type reaching it is passed on unchanged.
func For[S any, A action.Action](fn func(ctx context.Context, a A, mc Context[S]) error) Middleware[S] {
	return &typed[S, A]{tag: action.TagOf[A](), fn: fn}
}

func (m *typed[S, A]) AppliesTo(tag action.Tag) bool {
	return tag == m.tag
}

func (m *typed[S, A]) Handle(ctx context.Context, a action.Action, mc Context[S]) error {
	ta, ok := a.(A)
	if !ok {
		return mc.Next(ctx, a)
	}
	return m.fn(ctx, ta, mc)
}

// Tag returns the tag the middleware is bound to.
func (m *typed[S, A]) Tag() action.Tag {
	return m.tag
}

// predicate applies a handler wherever pred accepts the tag.
type predicate[S any] struct {
	pred func(action.Tag) bool
	fn   HandlerFunc[S]
}

// When returns a middleware that applies to every tag accepted by pred.
func When[S any](pred func(action.Tag) bool, fn HandlerFunc[S]) Middleware[S] {
	return &predicate[S]{pred: pred, fn: fn}
}

// All returns a middleware that applies to every tag.
func All[S any](fn HandlerFunc[S]) Middleware[S] {
	return When(AnyTag, fn)
}

func (m *predicate[S]) AppliesTo(tag action.Tag) bool {
	return m.pred != nil && m.pred(tag)
}

func (m *predicate[S]) Handle(ctx context.Context, a action.Action, mc Context[S]) error {
	return m.fn(ctx, a, mc)
}

// AnyTag accepts every tag.
func AnyTag(action.Tag) bool { return true }

// Tags returns a predicate accepting exactly the given tags.
func Tags(tags ...action.Tag) func(action.Tag) bool {
	set := make(map[action.Tag]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return func(tag action.Tag) bool {
		_, ok := set[tag]
		return ok
	}
}
