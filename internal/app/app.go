package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/handlers"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/processor"
	"github.com/tonehaven/studiogen/internal/services/gemini"
	"github.com/tonehaven/studiogen/internal/services/generation"
	"github.com/tonehaven/studiogen/internal/services/notebook"
	"github.com/tonehaven/studiogen/internal/services/selector"
	"github.com/tonehaven/studiogen/internal/storage/badger"
)

// App holds all application components and dependencies. Everything is
// constructed here and passed down explicitly; no component reads global
// state.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Backend adapters and orchestration
	NotebookService interfaces.NotebookService
	CloudService    interfaces.CloudService
	Selector        interfaces.BackendSelector
	Orchestrator    interfaces.Orchestrator
	Processor       *processor.Processor

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	GenerateHandler *handlers.GenerateHandler
	QueueHandler    *handlers.QueueHandler
	BackendHandler  *handlers.BackendHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.NotebookService = notebook.NewService(&cfg.Notebook, logger)

	cloudService, err := gemini.NewService(&cfg.Gemini, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize cloud backend: %w", err)
	}
	app.CloudService = cloudService

	app.Selector = selector.NewService(cfg, app.NotebookService, app.CloudService, storageManager.SettingsStorage(), logger)
	app.Orchestrator = generation.NewOrchestrator(app.Selector, app.NotebookService, app.CloudService, logger)
	app.Processor = processor.NewProcessor(&cfg.Processor, storageManager.QueueStorage(), app.Orchestrator, app.NotebookService, logger)

	app.APIHandler = handlers.NewAPIHandler(logger)
	app.GenerateHandler = handlers.NewGenerateHandler(app.Orchestrator, logger)
	app.QueueHandler = handlers.NewQueueHandler(storageManager.QueueStorage(), app.Processor, logger)
	app.BackendHandler = handlers.NewBackendHandler(app.Selector, logger)

	logger.Info().
		Str("backend_mode", string(cfg.Backend.Mode)).
		Bool("gemini_configured", app.CloudService.Configured()).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
