package handlers

import (
	"encoding/json"
	"net/http"

	"devcollab/internal/logger"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string, logger *logger.Logger) {
	writeJSON(w, status, errorResponse{Detail: detail}, logger)
}
