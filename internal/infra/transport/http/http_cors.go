package http

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware allows the given origins to call JSON endpoints with credentials.
// With no origins configured, cross-origin requests get no CORS headers.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", TraceIDHeader},
		ExposedHeaders:   []string{TraceIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
