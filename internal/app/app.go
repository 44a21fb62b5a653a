package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/config"
	"github.com/kaibonsol/recipe-chat/internal/core"
	"github.com/kaibonsol/recipe-chat/internal/llm"
	"github.com/kaibonsol/recipe-chat/internal/recipe"
	"github.com/kaibonsol/recipe-chat/internal/store"
	"github.com/kaibonsol/recipe-chat/internal/store/sqlite"
	transporthttp "github.com/kaibonsol/recipe-chat/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	registry        *core.Registry
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	client := llm.New(llm.Config{
		BaseURL: cfg.ModelBaseURL,
		APIKey:  cfg.ModelAPIKey,
		Model:   cfg.ModelName,
		Timeout: cfg.ModelTimeout,
	}, logger)

	registry := core.NewRegistry(client, logger)
	generator := recipe.NewGenerator(client, logger)

	server := transporthttp.NewServer(registry, generator, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        registry,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	// Room loops for rooms created later start under this context.
	a.registry.Start(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
