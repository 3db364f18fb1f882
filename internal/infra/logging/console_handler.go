package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiCyan,
	slog.LevelInfo:  ansiGreen,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler writes one human-readable line per record, followed by the caller.
// Colors are used only when the output is a terminal.
type ConsoleHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	color  bool
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler returns a ConsoleHandler writing to out.
func NewConsoleHandler(out io.Writer) *ConsoleHandler {
	return &ConsoleHandler{
		out:   out,
		mu:    new(sync.Mutex),
		color: isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (h *ConsoleHandler) paint(code, s string) string {
	if !h.color {
		return s
	}

	return code + s + ansiReset
}

// Enabled implements slog.Handler. Level gating is left to FilterHandler.
func (h *ConsoleHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(h.paint(ansiGray, r.Time.Format("15:04:05.000000")))
	b.WriteString(" ")
	b.WriteString(h.paint(levelColors[r.Level], fmt.Sprintf("%-7s", "["+r.Level.String()+"]")))
	b.WriteString(" ")
	b.WriteString(r.Message)

	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.grouped(a))

		return true
	})

	if len(attrs) > 0 {
		b.WriteString(" " + h.paint(ansiGray, "|"))
		h.writeAttrs(&b, "", attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString("\n-> " + h.paint(ansiGray, filepath.Base(frame.Function)+"()"))
		b.WriteString(" in " + h.paint(ansiUnderline, fmt.Sprintf("%s:%d", frame.File, frame.Line)))
	}

	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.out, b.String())

	return err //nolint:wrapcheck
}

// grouped nests a record attribute inside the handler's open groups.
func (h *ConsoleHandler) grouped(a slog.Attr) slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		a = slog.Attr{Key: h.groups[i], Value: slog.GroupValue(a)}
	}

	return a
}

func (h *ConsoleHandler) writeAttrs(b *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		value := attr.Value.Resolve()

		if value.Kind() == slog.KindGroup {
			h.writeAttrs(b, prefix+attr.Key+".", value.Group())

			continue
		}

		b.WriteString(" " + prefix + attr.Key + "=" + h.paint(ansiGray, value.String()))
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)

	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.grouped(a))
	}

	return &clone
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)

	return &clone
}
