package logging

import (
	"context"
	"log/slog"

	context_ "github.com/teacherlink/webfront/internal/infra/context"
)

// TracingHandler adds the request's trace id and browser session id to every record.
type TracingHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*TracingHandler)(nil)

// NewTracingHandler creates a new TracingHandler wrapping the given handler.
func NewTracingHandler(h slog.Handler) *TracingHandler {
	return &TracingHandler{h: h}
}

// Handle implements slog.Handler.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID)))
	}

	if sessionID, ok := context_.SessionIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("session", slog.String("id", sessionID)))
	}

	return h.h.Handle(ctx, r) //nolint:wrapcheck
}

// WithAttrs implements slog.Handler.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.h.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
