package app

import (
	"net/http"

	"github.com/thushan/obfswatch/internal/engine"
)

// handleUpdates is GET /updates: a long-poll that blocks draining C6
// until RECEIVE_TIMEOUT passes with no new batch before responding. An
// empty bridge_results map means nothing changed during the polling
// window.
func (a *Application) handleUpdates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ch, cleanup := a.engine.Subscribe(r.Context())
	defer cleanup()

	merged := engine.DrainUpdates(r.Context(), ch)

	resp := updatesResponse{BridgeResults: toResultsDTO(merged)}
	if resp.BridgeResults == nil {
		resp.BridgeResults = map[string]bridgeResultDTO{}
	}

	writeJSON(w, http.StatusOK, resp)
}
