package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if bcfg.Type == backend.MemoryBackend {
		logger.Warn("Worker is using the memory backend; it will not see the API's data")
	}
	// The worker only consumes events; it never publishes or seeds.
	bcfg.AMQPURL = ""
	bcfg.SeedFile = ""
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	var exporter ports.SummaryExporter
	if cfg.SheetsEnabled() {
		exp, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			SheetBase:     cfg.GoogleSheetName,
			ClientFile:    cfg.GoogleOAuthClientFile,
			ClientJSON:    cfg.GoogleOAuthClientJSON,
			TokenFile:     cfg.GoogleOAuthTokenFile,
			TokenJSON:     cfg.GoogleOAuthTokenJSON,
		}, res.Store, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		exporter = exp
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	w := worker.NewBudgetWorker(res.Store, exporter, logger)
	if err := w.Run(ctx, client, cfg.ReconcileInterval); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		_ = client.Close()
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
