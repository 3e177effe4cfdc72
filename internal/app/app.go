package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/handlers"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/services/answer"
	"github.com/ternarybob/elo/internal/services/datahub"
	"github.com/ternarybob/elo/internal/services/dedup"
	"github.com/ternarybob/elo/internal/services/delivery"
	"github.com/ternarybob/elo/internal/services/flows"
	"github.com/ternarybob/elo/internal/services/llm"
	"github.com/ternarybob/elo/internal/services/maintenance"
	"github.com/ternarybob/elo/internal/services/tts"
	"github.com/ternarybob/elo/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager interfaces.StorageManager

	// Pipeline services
	ChatClient   *llm.ProviderFactory
	Aggregator   *datahub.Service
	Orchestrator *answer.Orchestrator
	DedupService *dedup.Service
	SpeechSvc    *tts.Service
	Delivery     *delivery.Engine
	Dispatcher   *flows.Dispatcher

	telegramProvider *delivery.TelegramProvider

	// Background services
	MaintenanceService *maintenance.Service

	// HTTP handlers
	WhatsAppHandler *handlers.WhatsAppHandler
	TelegramHandler *handlers.TelegramHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *handlers.WebSocketHandler
}

// New creates the application with all services wired in dependency order
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := a.initStorage(); err != nil {
		cancel()
		return nil, err
	}

	if err := a.initServices(); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.initHandlers(); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.MaintenanceService.Start(cfg.Schedule.MaintenanceSpec); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}

	logger.Info().Msg("Application initialized")
	return a, nil
}

func (a *App) initStorage() error {
	manager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = manager

	a.Logger.Info().
		Str("type", a.Config.Storage.Type).
		Msg("Storage initialized")
	return nil
}

func (a *App) initServices() error {
	a.ChatClient = llm.NewProviderFactory(
		&a.Config.Gemini,
		&a.Config.Claude,
		&a.Config.LLM,
		a.Logger,
	)

	a.Aggregator = datahub.NewService(&a.Config.Datahub, a.Logger)

	a.Orchestrator = answer.NewOrchestrator(
		&a.Config.Answer,
		a.StorageManager.CacheStore(),
		a.StorageManager.StateStore(),
		a.Aggregator,
		a.ChatClient,
		a.Logger,
	)

	a.DedupService = dedup.NewService(&a.Config.Dedup, a.StorageManager.DedupStore(), a.Logger)

	a.SpeechSvc = tts.NewService()

	a.Delivery = delivery.NewEngine(&a.Config.Delivery, a.SpeechSvc, a.Logger)
	a.Delivery.Register(delivery.NewWAHAProvider(&a.Config.WAHA, a.Logger))
	a.Delivery.Register(delivery.NewConsoleProvider(a.Logger))

	telegramProvider, err := delivery.NewTelegramProvider(&a.Config.Telegram, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram provider: %w", err)
	}
	a.Delivery.Register(telegramProvider)
	a.telegramProvider = telegramProvider

	a.WSHandler = handlers.NewWebSocketHandler(&a.Config.WebSocket, a.Logger)

	a.Dispatcher = flows.NewDispatcher(a.Orchestrator, a.Delivery, a.WSHandler, a.Logger)

	a.MaintenanceService = maintenance.NewService(a.StorageManager, a.DedupService, a.Logger)

	a.Logger.Info().
		Str("default_provider", string(a.Config.LLM.DefaultProvider)).
		Str("fallback_provider", a.Config.Delivery.FallbackProvider).
		Msg("Services initialized")
	return nil
}

func (a *App) initHandlers() error {
	a.WhatsAppHandler = handlers.NewWhatsAppHandler(
		a.Dispatcher,
		a.Delivery,
		a.DedupService,
		a.WSHandler,
		a.Logger,
	)

	var files delivery.FileURLResolver
	if a.telegramProvider != nil {
		files = a.telegramProvider.FileResolver()
	}

	a.TelegramHandler = handlers.NewTelegramHandler(
		&a.Config.Telegram,
		a.Dispatcher,
		a.Delivery,
		a.DedupService,
		files,
		a.SpeechSvc,
		a.WSHandler,
		a.Logger,
	)

	a.StatusHandler = handlers.NewStatusHandler()
	return nil
}

// Context returns the application's root context
func (a *App) Context() context.Context {
	return a.ctx
}

// Close shuts down services in reverse dependency order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application")

	if a.MaintenanceService != nil {
		a.MaintenanceService.Stop()
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.ChatClient != nil {
		a.ChatClient.Close()
	}

	a.cancelCtx()

	// Give in-flight handlers a moment before the stores close under them
	time.Sleep(100 * time.Millisecond)

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close reported an error")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
