package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardsmith/cardsmith-api/internal/api"
	"github.com/cardsmith/cardsmith-api/internal/config"
	"github.com/cardsmith/cardsmith-api/internal/platform/openrouter"
	"github.com/cardsmith/cardsmith-api/internal/platform/postgres"
	"github.com/cardsmith/cardsmith-api/internal/service"
	"github.com/cardsmith/cardsmith-api/internal/service/auth"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore       store.UserStore
	flashcardStore  store.FlashcardStore
	generationStore store.GenerationStore
	errorLogStore   store.ErrorLogStore

	// Services
	jwtService        auth.JWTService
	passwordVerifier  auth.PasswordVerifier
	errorLogService   service.ErrorLogService
	generationService service.GenerationService
	flashcardService  service.FlashcardService

	// Handlers
	authHandler       *api.AuthHandler
	generationHandler *api.GenerationHandler
	flashcardHandler  *api.FlashcardHandler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, logger, cfg.Auth.BcryptCost)
	app.flashcardStore = postgres.NewPostgresFlashcardStore(db, logger)
	app.generationStore = postgres.NewPostgresGenerationStore(db, logger)
	app.errorLogStore = postgres.NewPostgresErrorLogStore(db, logger)

	completionClient, err := openrouter.NewClient(openrouter.Config{
		APIKey:     cfg.LLM.OpenRouterAPIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.LLM.MaxRetries,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	logger.Info("OpenRouter completion client initialized",
		"default_model", cfg.LLM.DefaultModel)

	app.errorLogService, err = service.NewErrorLogService(app.errorLogStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create error log service: %w", err)
	}

	app.generationService, err = service.NewGenerationService(
		completionClient,
		app.generationStore,
		app.errorLogService,
		cfg.LLM.DefaultModel,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	app.flashcardService, err = service.NewFlashcardService(
		db,
		app.flashcardStore,
		app.generationStore,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flashcard service: %w", err)
	}

	app.authHandler = api.NewAuthHandler(app.userStore, app.jwtService, app.passwordVerifier)
	app.generationHandler = api.NewGenerationHandler(app.generationService)
	app.flashcardHandler = api.NewFlashcardHandler(app.flashcardService)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
