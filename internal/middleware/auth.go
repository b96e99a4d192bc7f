package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"vfs/internal/auth"
	"vfs/internal/httputil"
	"vfs/internal/metrics"
)

// Auth requires a valid bearer token and stores its subject as the user id.
// A nil verifier disables authentication.
func Auth(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				metrics.RecordAuthAttempt(false)
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				metrics.RecordAuthAttempt(false)
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, err.Error())
				return
			}

			metrics.RecordAuthAttempt(true)
			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}
