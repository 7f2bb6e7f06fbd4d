package http

import (
	"net/http"
	"time"

	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/httpx"
)

// ReadyzHandler is the readiness probe. It flips to 503 when the database
// can't be reached so load balancers stop routing token traffic here.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{Database: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
