// Command smartspend runs the expense tracking HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jithinsajeev21/Smartspend/internal/ai"
	"github.com/jithinsajeev21/Smartspend/internal/amqp"
	"github.com/jithinsajeev21/Smartspend/internal/backend"
	"github.com/jithinsajeev21/Smartspend/internal/config"
	apphttp "github.com/jithinsajeev21/Smartspend/internal/http"
	applog "github.com/jithinsajeev21/Smartspend/internal/log"
	"github.com/jithinsajeev21/Smartspend/internal/services"
)

func main() {
	// .env is for local development; in containers the variables come from
	// the environment directly.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "server"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).Create(backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	// The export pipeline is optional. Without a broker the server still
	// works; rows stay pending until a worker with a broker drains them.
	var publisher services.ExportPublisher
	if cfg.ExportEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Export publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Export publishing disabled, no AMQP_URL configured")
	}

	expenses := services.NewExpenseService(res.Repo, publisher)

	var (
		receipts *services.ReceiptImporter
		insights apphttp.InsightGenerator
	)
	if cfg.AIEnabled() {
		aiClient := ai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		receipts = services.NewReceiptImporter(aiClient, expenses)
		insights = aiClient
		logger.Info("AI features enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("AI features disabled, no GEMINI_API_KEY configured")
	}

	srv := apphttp.NewServer(":"+cfg.Port, expenses, receipts, insights)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting smartspend server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
