package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request that panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery creates panic recovery middleware with a custom panic handler
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logPanic(logger, err,
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					handler(w, r, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Recover logs and swallows a panic. It must be deferred directly:
//
//	defer middleware.Recover(logger, slog.String("interaction", id))
func Recover(logger *slog.Logger, attrs ...slog.Attr) {
	if err := recover(); err != nil {
		logPanic(logger, err, attrs...)
	}
}

func logPanic(logger *slog.Logger, err any, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.Any("error", err),
		slog.String("stack", string(debug.Stack())),
	)
	logger.LogAttrs(context.Background(), slog.LevelError, "panic recovered", attrs...)
}
