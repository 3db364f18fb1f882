package context

import (
	"context"
)

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext extracts the trace ID of the current request.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	return value[string](ctx, contextKeyTraceID)
}

// WithTraceID returns a context carrying traceID. Outgoing backend calls forward it.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}
