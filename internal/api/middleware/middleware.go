// Package middleware binds the shared HTTP middleware to the JSON API
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/drawphone/internal/api/apierr"
	"github.com/mcoot/drawphone/internal/middleware"
)

// Logging creates request logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "api")))
}

// Recovery creates panic recovery middleware for the API.
// A panicking handler gets a JSON internal error response.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With(slog.String("component", "api")), func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// LimitBody caps request bodies at n bytes; larger uploads fail to read
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, n)
	}
}
