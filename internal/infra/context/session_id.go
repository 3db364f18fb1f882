package context

import (
	"context"
)

const contextKeySessionID = contextKey("sessionID")

// SessionIDFromContext extracts the browser session id bound to the request.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	return value[string](ctx, contextKeySessionID)
}

// WithSessionID returns a context carrying the browser session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID, sessionID)
}
