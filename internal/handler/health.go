package handler

import (
	"context"
	"net/http"
	"time"

	"vfs/internal/httputil"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers GET /health. With a nil db it only reports the process is up.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				httputil.RespondError(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
