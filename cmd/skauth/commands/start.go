package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sk-platform/skauth/internal/api"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/config"
	"github.com/sk-platform/skauth/pkg/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the skauth server",
	Long: `Start the skauth HTTP server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/skauth/config.yaml.

Examples:
  # Start with default config location
  skauth start

  # Start with custom config file
  skauth start --config /etc/skauth/config.yaml

  # Start with environment variable overrides
  SKAUTH_LOGGING_LEVEL=DEBUG skauth start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	// Reload the log level when the config file changes on disk.
	if GetConfigFile() != "" || config.DefaultConfigExists() {
		err := config.Watch(GetConfigFile(), func(fresh *config.Config) {
			logger.SetLevel(fresh.Logging.Level)
		})
		if err != nil {
			logger.Warn("Config watch unavailable", "error", err)
		}
	}

	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() { _ = st.Close() }()
	logger.Info("Store initialized", "type", cfg.Database.Type)

	server, err := api.NewServer(cfg.API, st)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	logger.Info("API server configured", "port", server.Port())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown",
			"timeout", cfg.ShutdownTimeout)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		stopErr := server.Stop(shutdownCtx)
		shutdownCancel()
		cancel()

		if stopErr != nil {
			logger.Error("Server shutdown error", "error", stopErr)
			return stopErr
		}
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
