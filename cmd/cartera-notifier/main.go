package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"cartera/internal/amqp"
	"cartera/internal/config"
	applog "cartera/internal/log"
	"cartera/internal/sheets"
	"cartera/internal/sheets/google"
	"cartera/internal/sheets/memory"
	"cartera/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := applog.NewFromEnv(applog.ComponentNotifier)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without a configured spreadsheet the audit trail stays in memory,
	// which keeps local development working against a real broker.
	var appender sheets.AuditAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets audit sink initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = memory.New()
		logger.Warn("No spreadsheet configured, audit rows are kept in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	notifier := worker.NewNotifier(appender, logger)

	done := make(chan error, 1)
	go func() {
		done <- notifier.Run(ctx, amqpClient)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Notifier stopped with error", applog.FieldError, err.Error())
			os.Exit(1)
		}
	}

	logger.Info("Notifier stopped gracefully")
}
