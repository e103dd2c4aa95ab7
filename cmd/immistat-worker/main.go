package main

import (
	"context"
	"os"

	"immistat/internal/amqp"
	"immistat/internal/cli"
	"immistat/internal/config"
	applog "immistat/internal/log"
	"immistat/internal/records"
	"immistat/internal/services"
	"immistat/internal/sheets"
	gsheet "immistat/internal/sheets/google"
	sheetsmem "immistat/internal/sheets/memory"
	"immistat/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting immistat-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	kv := cli.InitBackend(ctx, logger, cfg)
	if kv.Cleanup != nil {
		defer kv.Cleanup(context.Background())
	}

	exporter, err := newExporter(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker never mutates records; it reloads what the server persisted.
	store := records.NewStore(kv.Store, logger)
	processor := services.NewExportProcessor(store, exporter, services.ExportProcessorConfig{
		PollInterval: cfg.ExportPollInterval,
		MaxRetries:   cfg.ExportMaxRetries,
		Location:     cfg.Location(),
	})

	w := worker.NewExportWorker(amqpClient, processor, worker.Config{
		ReportSchedule: cfg.ReportCronSchedule,
		Location:       cfg.Location(),
	}, logger)

	// Catch up on anything changed while the worker was down.
	processor.Notify()

	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func newExporter(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return sheetsmem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		RecordsSheet:    cfg.GoogleRecordsSheet,
		SummarySheet:    cfg.GoogleSummarySheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
