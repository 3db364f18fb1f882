package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teacherlink/webfront/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on
	ServerAddr string `env:"SERVER_ADDR" default:":8080"`

	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout bounds how long in-flight requests may finish after ctx is done
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPTransport is anything that can serve the web front's requests.
type HTTPTransport interface {
	http.Handler
}

// Fallback is implemented by transports that render their own recovery page
// when a handler panics.
type Fallback interface {
	ServeFallback(w http.ResponseWriter, r *http.Request)
}

// Wrap applies the standard middleware chain: tracing outermost, then logging, then
// panic recovery. If handler implements Fallback, panics render its recovery page.
func Wrap(handler HTTPTransport, log logging.Logger) http.Handler {
	var fallback http.Handler = http.HandlerFunc(internalServerError)
	if f, ok := handler.(Fallback); ok {
		fallback = http.HandlerFunc(f.ServeFallback)
	}

	wrapped := RescueingMiddleware(handler, fallback, log)
	wrapped = LoggingMiddleware(wrapped, log)
	wrapped = TracingMiddleware(wrapped)

	return wrapped
}

func internalServerError(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// ListenAndServe serves handler until ctx is done, then shuts down gracefully.
func ListenAndServe(ctx context.Context, handler HTTPTransport, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	server := &http.Server{ //nolint:exhaustruct
		Addr:              cfg.ServerAddr,
		Handler:           Wrap(handler, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- server.Serve(sock)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	log.InfoContext(ctx, "shutting down")

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
