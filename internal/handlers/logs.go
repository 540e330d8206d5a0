package handlers

import (
	"net/http"
	"os"

	"devcollab/internal/logger"
)

// ShowLogsHandler serves the log file for /logs/{level}.
func ShowLogsHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, ok := logger.ParseLevel(r.PathValue("level"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		filePath := log.Path(level)

		// Sprawdź czy plik istnieje
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Log file not found: " + level.FileName()))
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filePath)
	}
}

// ClearLogsHandler truncates the log file for /logs/{level}/clear.
func ClearLogsHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, ok := logger.ParseLevel(r.PathValue("level"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := log.CleanLogs(level); err != nil {
			log.Error("Failed to clear %s logs: %v", level, err)
			http.Error(w, "failed to clear logs", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
