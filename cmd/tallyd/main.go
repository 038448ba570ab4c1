package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tally/internal/amqp"
	"tally/internal/auth"
	"tally/internal/cli"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	// Export publishing is optional; without a broker the API still
	// works, records just stay local.
	var publisher services.ExportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export",
				log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client",
				log.FieldExchange, cfg.AMQPExchange,
				log.FieldQueue, cfg.AMQPQueue)
		}
	}

	svc := services.NewTransactionService(result.Store, publisher)
	authSvc := auth.NewService(result.Store, cfg.JWTSecret)

	srv := apphttp.NewServer(":"+cfg.Port, svc, authSvc, cfg.PageSize)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting tallyd",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
