package app

import (
	"encoding/json"
	"net/http"
)

// healthHandler is a liveness probe for the process itself, independent
// of any bridge's health.
func (a *Application) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
