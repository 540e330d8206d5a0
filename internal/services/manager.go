package services

import (
	"context"

	"devcollab/internal/logger"
	"devcollab/internal/repository"
	"devcollab/internal/services/sandbox"
	"devcollab/internal/services/websocket"
)

// CVProcessor runs the image routines behind /api/run/cv/{method}. Each
// method takes encoded image bytes and returns a PNG.
type CVProcessor interface {
	Canny(data []byte, low, high int) ([]byte, error)
	Hands(data []byte) ([]byte, error)
	Faces(data []byte) ([]byte, error)
}

// CodeRunner executes submitted snippets.
type CodeRunner interface {
	Run(ctx context.Context, code string) (*sandbox.Result, error)
}

// Manager holds the backend services shared by the HTTP handlers.
type Manager struct {
	snippets repository.SnippetRepository
	vision   CVProcessor
	runner   CodeRunner
	chatHub  *websocket.HubService
	logger   *logger.Logger
}

func NewManager(snippets repository.SnippetRepository, vision CVProcessor, runner CodeRunner, chatHub *websocket.HubService, logger *logger.Logger) *Manager {
	manager := &Manager{
		snippets: snippets,
		vision:   vision,
		runner:   runner,
		chatHub:  chatHub,
		logger:   logger,
	}

	manager.logger.Info("🎬 Manager ready")
	return manager
}

// Start runs the background services until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go m.chatHub.Run(ctx)
}

func (m *Manager) GetSnippetRepository() repository.SnippetRepository {
	return m.snippets
}
func (m *Manager) GetVision() CVProcessor {
	return m.vision
}
func (m *Manager) GetRunner() CodeRunner {
	return m.runner
}
func (m *Manager) GetChatHub() *websocket.HubService {
	return m.chatHub
}
