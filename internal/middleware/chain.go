package middleware

import (
	"context"

	"github.com/dshills/fluxstate/internal/action"
)

// Applicable returns the middleware that apply to tag, in registration order.
func Applicable[S any](mws []Middleware[S], tag action.Tag) []Middleware[S] {
	var out []Middleware[S]
	for _, m := range mws {
		if m.AppliesTo(tag) {
			out = append(out, m)
		}
	}
	return out
}

// Compose wraps terminal with mws so that mws[0] runs first.
// dispatch and getState are handed to every middleware through its Context.
func Compose[S any](mws []Middleware[S], terminal, dispatch Next, getState func() S) Next {
	next := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		m := mws[i]
		inner := next
		mc := NewContext(inner, dispatch, getState)
		next = func(ctx context.Context, a action.Action) error {
			return m.Handle(ctx, a, mc)
		}
	}
	return next
}

// Build composes the chain for one tag from the full middleware list.
func Build[S any](mws []Middleware[S], tag action.Tag, terminal, dispatch Next, getState func() S) Next {
	return Compose(Applicable(mws, tag), terminal, dispatch, getState)
}
