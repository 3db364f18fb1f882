package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/teacherlink/webfront/internal/infra/logging"
)

// LoggingMiddlewareResponseWriter records the status and size of a response.
type LoggingMiddlewareResponseWriter struct {
	http.ResponseWriter
	StatusCode  int
	BytesSent   int
	wroteHeader bool
}

func (w *LoggingMiddlewareResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.StatusCode = code
		w.wroteHeader = true
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *LoggingMiddlewareResponseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true

	n, err := w.ResponseWriter.Write(b)
	w.BytesSent += n

	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *LoggingMiddlewareResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// LoggingMiddleware logs each request at DEBUG and its response at a level chosen by
// status: ERROR for 5xx, WARN for 4xx, INFO otherwise. Redirects are part of normal
// routing here, so 3xx stays at INFO.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.DebugContext(r.Context(), "request", slog.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
		))

		mw := &LoggingMiddlewareResponseWriter{
			ResponseWriter: w,
			StatusCode:     http.StatusOK,
		}

		next.ServeHTTP(mw, r)

		level := logging.LevelInfo

		switch {
		case mw.StatusCode >= http.StatusInternalServerError:
			level = logging.LevelError
		case mw.StatusCode >= http.StatusBadRequest:
			level = logging.LevelWarn
		}

		attrs := []any{
			"uri", r.RequestURI,
			"method", r.Method,
			"status", mw.StatusCode,
			"bytes_sent", mw.BytesSent,
		}
		if location := mw.Header().Get("Location"); location != "" {
			attrs = append(attrs, "location", location)
		}

		log.Log(r.Context(), level, "response", slog.Group("http", attrs...))
	})
}
