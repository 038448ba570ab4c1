// Package cli provides common initialization for the cmd binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/log"
)

// SetupLogger initializes structured logging and installs it as the
// process default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend constructs the configured storage backend.
// Exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.Result {
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.Create(ctx, backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		PostgresURL:  cfg.PostgresURL,
	})
	if err != nil {
		logger.Error("Failed to initialize storage backend",
			log.FieldError, err,
			log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context cancelled on shutdown signals and a channel that
// signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup()
		}

		cancel()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-time.After(2 * time.Second):
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
