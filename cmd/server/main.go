package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kaibonsol/recipe-chat/internal/app"
	"github.com/kaibonsol/recipe-chat/internal/config"
	"github.com/kaibonsol/recipe-chat/internal/log"
)

var version = "dev"

func main() {
	var (
		configPath string
		logLevel   string
		overrides  config.Config
	)

	root := &cobra.Command{
		Use:          "recipe-chat-server",
		Short:        "Recipe chat relay and generation server",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; real environment variables win either way.
			_ = godotenv.Load()

			logger := log.New(logLevel)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.UpdateFrom(overrides)

			logger.Info().Str("config", path).Str("version", version).Msg("starting recipe-chat server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("run: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config.yaml (default: ./config.yaml)")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address (overrides config)")
	root.Flags().StringVar(&overrides.DatabasePath, "db", "", "SQLite database path (overrides config)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
