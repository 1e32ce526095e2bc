package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartera/internal/amqp"
	"cartera/internal/auth"
	"cartera/internal/config"
	"cartera/internal/core"
	apphttp "cartera/internal/http"
	applog "cartera/internal/log"
	"cartera/internal/services"
	"cartera/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env for local development; in containers the environment is
	// already populated.
	_ = godotenv.Load()

	logger := applog.NewFromEnv(applog.ComponentApp)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The publisher is optional: without a broker the ledger still works,
	// only the audit trail goes dark.
	var pub services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer client.Close()
		pub = client
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Warn("AMQP disabled, ledger events will not be published")
	}

	profiles := make([]core.WalletProfile, 0, len(cfg.Wallets))
	for _, w := range cfg.Wallets {
		profiles = append(profiles, core.WalletProfile{
			Wallet:     core.Wallet(w.Name),
			Multiplier: w.Multiplier,
			PayDay:     w.PayDay,
		})
	}

	authSvc := auth.NewService(repo.Q(), cfg.JWTSecret, cfg.TokenTTL, logger.WithComponent(applog.ComponentAuth))
	if err := authSvc.EnsureUsers(context.Background(), cfg.Wallets); err != nil {
		logger.Error("Failed to seed users", applog.FieldError, err.Error())
		os.Exit(1)
	}

	rates := services.NewRateService(repo, pub, logger)
	svc := apphttp.Services{
		Auth:        authSvc,
		Income:      services.NewIncomeService(repo, rates, cfg.Threshold(), profiles, pub, logger),
		Expenses:    services.NewExpenseService(repo, pub, logger),
		Liabilities: services.NewLiabilityService(repo, pub, logger),
		Rates:       rates,
		Assets:      services.NewAssetService(repo, pub, logger),
		Summary:     services.NewSummaryService(repo, rates, cfg.Threshold(), profiles, logger),
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
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
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting cartera server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
