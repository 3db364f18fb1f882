package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/teacherlink/webfront/internal/infra/logging"
)

// RescueingMiddleware recovers from panics in next. The panic and stack are logged
// and fallback renders the response, so the browser never gets a blank page.
// http.ErrAbortHandler is re-raised, as net/http expects.
func RescueingMiddleware(next http.Handler, fallback http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			p := recover()
			if p == nil {
				return
			}

			if p == http.ErrAbortHandler { //nolint:errorlint,err113
				panic(p)
			}

			log.ErrorContext(ctx, "request panic", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			), slog.Group("error",
				"panic", p,
				"stack", string(debug.Stack()),
			))

			fallback.ServeHTTP(w, r)
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}
