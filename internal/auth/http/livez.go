package http

import (
	"net/http"
	"time"
)

type healthBody struct {
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// LivezHandler reports that the process is up. Always 200 while the
// server is accepting connections.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codeHealthy.write(w, healthBody{
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
