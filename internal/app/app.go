package app

import (
	"context"
	"errors"
	"fmt"

	"devcollab/internal/config"
	"devcollab/internal/logger"
	"devcollab/internal/repository/sqlite"
	"devcollab/internal/routes"
	"devcollab/internal/server"
	"devcollab/internal/services"
	"devcollab/internal/services/sandbox"
	"devcollab/internal/services/vision"
	"devcollab/internal/services/websocket"
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	vision  *vision.ProcessorService
	manager *services.Manager
}

func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	processor := vision.NewProcessorService(cfg, logger)
	runner := sandbox.NewRunner(cfg, logger)
	chat := websocket.NewHubService("chat", logger)

	mng := services.NewManager(sqlite.NewSnippetRepository(db), processor, runner, chat, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		vision:  processor,
		manager: mng,
	}, nil
}

// Run serves the backend until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.manager.Start(ctx)

	router := routes.SetupRoutes(a.manager, a.config, a.logger)

	fmt.Printf("🚀 DevCollab Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Static: %s\n", a.config.StaticDirectory)
	fmt.Printf("🗄️  Database: %s\n", a.config.DatabasePath)
	fmt.Printf("🐍 Interpreter: %s %v\n", a.config.CodeInterpreter, a.config.CodeArgs)

	return server.Serve(ctx, fmt.Sprintf(":%d", a.config.Port), router, a.logger)
}

// Close releases the database and the vision models.
func (a *App) Close() error {
	return errors.Join(a.vision.Close(), a.db.Close())
}
