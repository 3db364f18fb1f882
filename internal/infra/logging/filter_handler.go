package logging

import (
	"context"
	"log/slog"
	"strings"
)

const loggerNameKey = "logger"

// FilterHandler drops records below the level configured for the logger's name.
// The name is taken from the "logger" attribute GetLogger attaches; the longest
// dotted prefix found in the package levels wins, otherwise the default level applies.
type FilterHandler struct {
	next      Handler
	level     Level
	pkgLevels map[string]Level
	name      string
}

var _ slog.Handler = (*FilterHandler)(nil)

// NewFilterHandler wraps next with per-logger level filtering.
func NewFilterHandler(next Handler, level Level, pkgLevels map[string]Level) *FilterHandler {
	return &FilterHandler{next: next, level: level, pkgLevels: pkgLevels}
}

func (h *FilterHandler) minLevel() Level {
	for name := h.name; name != ""; {
		if level, ok := h.pkgLevels[name]; ok {
			return level
		}

		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			break
		}

		name = name[:i]
	}

	return h.level
}

// Enabled implements slog.Handler.
func (h *FilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel() && h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *FilterHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.minLevel() {
		return nil
	}

	return h.next.Handle(ctx, r) //nolint:wrapcheck
}

// WithAttrs implements slog.Handler and picks up the logger name.
func (h *FilterHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)

	for _, attr := range attrs {
		if attr.Key == loggerNameKey {
			clone.name = attr.Value.String()
		}
	}

	return &clone
}

// WithGroup implements slog.Handler.
func (h *FilterHandler) WithGroup(name string) Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)

	return &clone
}
