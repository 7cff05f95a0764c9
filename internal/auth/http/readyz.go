package http

import (
	"net/http"
	"time"

	"github.com/redbrickhq/gatehouse/internal/auth/store"
)

type readyBody struct {
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// ReadyzHandler reports whether the service can actually serve, which
// for this service means the database answers.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := readyBody{
			Uptime:   time.Since(startTime).String(),
			Version:  version,
			Database: "ok",
		}

		if err := st.Ping(r.Context()); err != nil {
			body.Database = "error: " + err.Error()
			codeUnhealthy.write(w, body)
			return
		}

		codeHealthy.write(w, body)
	}
}
