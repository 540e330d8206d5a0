package handlers

import (
	"net/http"

	"devcollab/internal/logger"
	"devcollab/internal/services/relay"
)

type relayStatus struct {
	Method string            `json:"method"`
	Fields map[string]string `json:"params"`
	relay.Stats
}

// RelayStatusHandler reports the relay's parameters and counters.
func RelayStatusHandler(r *relay.Relay, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		params := r.Params()
		writeJSON(w, http.StatusOK, relayStatus{
			Method: string(params.Method),
			Fields: params.Fields(),
			Stats:  r.Stats(),
		}, logger)
	}
}
