package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/teacherlink/webfront/internal/infra/context"
	"github.com/teacherlink/webfront/internal/util/encoding"
)

const TraceIDHeader = "X-Request-ID"

const maxTraceIDLength = 128

// TracingMiddleware puts a trace id into the request context and echoes it in the
// response. An incoming X-Request-ID is reused, otherwise a UUIDv7 is generated.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

func getTraceID(r *http.Request) string {
	if traceID := r.Header.Get(TraceIDHeader); traceID != "" && len(traceID) <= maxTraceIDLength {
		return traceID
	}

	return NewID()
}

// NewID returns a fresh time-ordered id in the compact lowercase base32 form.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return encoding.EncodeID(id[:])
}
