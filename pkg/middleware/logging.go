package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

type loggerKeyType struct{}

var LoggerKey = loggerKeyType{}

// RequestLogger logs each request and injects a request-scoped logger into
// the context.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			ctx := context.WithValue(r.Context(), LoggerKey, reqLog)

			reqLog.Info("request started")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger pulls the request-scoped logger back out, falling back to the
// process default.
func Logger(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}
