package dispatcher

import (
	"context"

	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation ID carried by ctx, if any.
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}

// EnsureCorrelationID returns ctx unchanged if it already carries a
// correlation ID, otherwise a child context with a fresh one.
// Nested dispatches therefore share the ID of the outermost dispatch.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if _, ok := CorrelationID(ctx); ok {
		return ctx
	}
	return WithCorrelationID(ctx, uuid.NewString())
}
