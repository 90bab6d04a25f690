package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/market-rates-backend/internal/api"
	"github.com/kjannette/market-rates-backend/internal/config"
	"github.com/kjannette/market-rates-backend/internal/db"
	"github.com/kjannette/market-rates-backend/internal/ingest"
	"github.com/kjannette/market-rates-backend/internal/logging"
	"github.com/kjannette/market-rates-backend/internal/notifications"
	"github.com/kjannette/market-rates-backend/internal/repository"
	"github.com/kjannette/market-rates-backend/internal/scheduler"
	"github.com/kjannette/market-rates-backend/internal/sources"
)

const banner = `
╔══════════════════════════════════════╗
║        Market Rates Server v0.1      ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := logging.New("market-rates-server", cfg.LogLevel, cfg.LogFormat)
	cfg.Print(logger)

	// Database
	if err := db.Migrate(cfg.DSN()); err != nil {
		logger.WithError(err).Fatal("Schema migration failed")
	}

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DSN(), db.PoolOptions{MaxConns: int32(cfg.DBMaxConns), MinConns: 1})
	if err != nil {
		logger.WithError(err).Fatal("Database connection failed")
	}
	defer func() {
		pool.Close()
		logger.Info("Connection pool closed")
	}()

	if err := db.VerifySchema(ctx, pool, logger); err != nil {
		logger.WithError(err).Fatal("Database schema check failed")
	}

	// Pipeline
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName, logger)
	fetchOpts := sources.Options{Timeout: cfg.FetchTimeout, UserAgent: cfg.UserAgent}
	pipeline := ingest.New(ingest.Deps{
		Gold:          sources.NewGoldSource(cfg.GoldURL, sources.GoldOptions{Options: fetchOpts, Region: cfg.GoldRegion}, logger),
		Currency:      sources.NewCurrencySource(cfg.CurrencyURL, fetchOpts, logger),
		GoldStore:     repository.NewGoldRepo(pool),
		CurrencyStore: repository.NewCurrencyRepo(pool),
		Notifier:      notify,
	}, cfg.StoreTimeout, logger)

	sched, err := scheduler.New(pipeline, scheduler.Options{
		Spec:       cfg.IngestSchedule,
		RunOnStart: cfg.IngestOnStart,
		RunTimeout: cfg.RunTimeout(),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Scheduler setup failed")
	}

	// 1. API server
	srv := api.NewServer(api.NewPGStore(pool), sched, api.Options{
		Port:            cfg.APIPort,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		GoldProducts:    cfg.GoldProducts,
		CurrencyCode:    cfg.CurrencyCode,
	}, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("API server error")
		}
	}()

	// 2. Ingestion scheduler
	if err := sched.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Scheduler start failed")
	}

	logger.Info("All services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("API shutdown error")
	}
	if err := notify.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Pending notifications abandoned")
	}
	logger.Info("Shutdown complete")
}
