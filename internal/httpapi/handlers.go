package httpapi

import (
	"net/http"
	"time"
)

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "cliphub-api",
		"version": a.version,
	}, "healthy")
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		}, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"}, "ready")
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "cliphub-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	}, "info")
}
