package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// RequestLogger logs every HTTP request with its method, route, status,
// duration, and the acting member when a session is attached.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", recorder.status),
			slog.Duration("duration", time.Since(start)),
		}
		if member := GetMemberCode(r.Context()); member != "" {
			attrs = append(attrs, slog.String("member", string(member)))
		}

		if recorder.status >= http.StatusInternalServerError {
			slog.Error("request failed", attrs...)
		} else {
			slog.Info("request completed", attrs...)
		}
	})
}
