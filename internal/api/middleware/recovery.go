package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/sortinghat/internal/api/apierr"
	"github.com/mcoot/sortinghat/internal/middleware"
)

// Recovery creates panic recovery middleware for the admin API.
// Panics become JSON 500 responses.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
