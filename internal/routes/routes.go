package routes

import (
	"net/http"

	"devcollab/internal/config"
	"devcollab/internal/handlers"
	"devcollab/internal/logger"
	"devcollab/internal/middleware"
	"devcollab/internal/services"
)

// SetupRoutes registers the API, WebSocket, log and static routes and wraps
// the mux with CORS and request logging.
func SetupRoutes(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	snippets := manager.GetSnippetRepository()

	// API endpoints
	mux.HandleFunc("GET /api/health", handlers.HealthHandler(logger))
	mux.HandleFunc("GET /api/snippets", handlers.ListSnippetsHandler(snippets, logger))
	mux.HandleFunc("POST /api/snippets", handlers.CreateSnippetHandler(snippets, logger))
	mux.HandleFunc("GET /api/snippets/{id}", handlers.GetSnippetHandler(snippets, logger))
	mux.HandleFunc("DELETE /api/snippets/{id}", handlers.DeleteSnippetHandler(snippets, logger))
	mux.HandleFunc("POST /api/run/cv/{method}", handlers.RunCVHandler(manager.GetVision(), cfg, logger))
	mux.HandleFunc("POST /api/run/code", handlers.RunCodeHandler(manager.GetRunner(), logger))

	// WebSocket
	mux.HandleFunc("GET /ws/chat", handlers.ChatWebsocketHandler(manager.GetChatHub(), logger))

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handlers.ShowLogsHandler(logger))
	mux.HandleFunc("POST /logs/{level}/clear", handlers.ClearLogsHandler(logger))

	// Static files, index.html for /
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDirectory)))

	return middleware.CORSMiddleware(middleware.LoggingMiddleware(logger)(mux))
}
