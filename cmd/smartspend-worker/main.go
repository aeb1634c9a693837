// Command smartspend-worker drains the export queue into the Google Sheets
// ledger, consuming change notifications from the AMQP broker and sweeping
// for missed rows on a timer.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/jithinsajeev21/Smartspend/internal/amqp"
	"github.com/jithinsajeev21/Smartspend/internal/config"
	applog "github.com/jithinsajeev21/Smartspend/internal/log"
	gsheet "github.com/jithinsajeev21/Smartspend/internal/sheets/google"
	"github.com/jithinsajeev21/Smartspend/internal/storage"
	"github.com/jithinsajeev21/Smartspend/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "worker"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.ExportEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	// The export queue lives in SQLite, so the worker reads the database
	// directly regardless of which backend the server was started with.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ledger, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets ledger", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets ledger ready", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(repo, ledger, cfg.ExportBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeExports(ctx, func(msg *amqp.ExportMessage) error {
			return exporter.HandleMessage(ctx, msg)
		})
	})
	g.Go(func() error {
		return exporter.Run(ctx, cfg.ExportInterval)
	})

	logger.Info("Export worker started", "queue", cfg.AMQPQueue, "interval", cfg.ExportInterval.String())
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Export worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully")
}
