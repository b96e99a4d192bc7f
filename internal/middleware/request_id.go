package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"vfs/internal/httputil"
)

// RequestID tags each request with a correlation id, reusing the caller's
// X-Request-ID when present, and logs one line per request.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(httputil.RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(httputil.RequestIDHeader, id)

			start := time.Now()
			next.ServeHTTP(w, httputil.WithRequestID(r, id))

			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", id,
				"duration", time.Since(start),
			)
		})
	}
}
