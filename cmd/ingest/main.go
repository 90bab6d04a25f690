// Command ingest runs the pipeline exactly once and exits non-zero on
// failure, for use under an external scheduler.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/market-rates-backend/internal/config"
	"github.com/kjannette/market-rates-backend/internal/db"
	"github.com/kjannette/market-rates-backend/internal/ingest"
	"github.com/kjannette/market-rates-backend/internal/logging"
	"github.com/kjannette/market-rates-backend/internal/notifications"
	"github.com/kjannette/market-rates-backend/internal/repository"
	"github.com/kjannette/market-rates-backend/internal/sources"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	logger := logging.New("market-rates-ingest", cfg.LogLevel, cfg.LogFormat)

	if err := db.Migrate(cfg.DSN()); err != nil {
		logger.WithError(err).Error("Schema migration failed")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DSN(), db.PoolOptions{MaxConns: int32(cfg.DBMaxConns), MinConns: 1})
	if err != nil {
		logger.WithError(err).Error("Database connection failed")
		return 1
	}
	defer pool.Close()

	if err := db.VerifySchema(ctx, pool, logger); err != nil {
		logger.WithError(err).Error("Database schema check failed")
		return 1
	}

	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := notify.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("Pending notifications abandoned")
		}
	}()

	fetchOpts := sources.Options{Timeout: cfg.FetchTimeout, UserAgent: cfg.UserAgent}
	pipeline := ingest.New(ingest.Deps{
		Gold:          sources.NewGoldSource(cfg.GoldURL, sources.GoldOptions{Options: fetchOpts, Region: cfg.GoldRegion}, logger),
		Currency:      sources.NewCurrencySource(cfg.CurrencyURL, fetchOpts, logger),
		GoldStore:     repository.NewGoldRepo(pool),
		CurrencyStore: repository.NewCurrencyRepo(pool),
		Notifier:      notify,
	}, cfg.StoreTimeout, logger)

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout())
	defer cancel()

	if _, err := pipeline.Run(ctx); err != nil {
		return 1
	}
	return 0
}
