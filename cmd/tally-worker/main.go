package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/export/google"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL must be set for the export worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID must be set for the export worker")
		os.Exit(1)
	}

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	getter, ok := result.Store.(ledger.RecordGetter)
	if !ok {
		logger.Error("Storage backend does not support record lookup",
			log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	exporter, err := google.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets exporter initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)

	w := worker.NewExportWorker(getter, exporter)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	logger.Info("Starting tally-worker",
		log.FieldExchange, cfg.AMQPExchange,
		log.FieldQueue, cfg.AMQPQueue)

	err = amqp.ConsumeExportsWithRetry(runCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		func(msg *amqp.ExportMessage) error {
			return w.HandleMessage(runCtx, msg)
		})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
