package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Tables the ingestion pipeline and read API depend on.
var rateTables = []string{"gold_rates", "currency_rates"}

type PoolOptions struct {
	MaxConns int32
	MinConns int32
	// ConnectTimeout bounds pool creation and the first ping.
	ConnectTimeout time.Duration
}

var DefaultPool = PoolOptions{
	MaxConns:       10,
	MinConns:       1,
	ConnectTimeout: 5 * time.Second,
}

// Connect opens a pool and pings it. ctx cancels the attempt; the
// ConnectTimeout applies on top of it.
func Connect(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if opts.MaxConns <= 0 {
		opts.MaxConns = DefaultPool.MaxConns
	}
	if opts.MinConns < 0 || opts.MinConns > opts.MaxConns {
		opts.MinConns = min(DefaultPool.MinConns, opts.MaxConns)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultPool.ConnectTimeout
	}
	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = opts.MinConns
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping %s:%d: %w", cfg.ConnConfig.Host, cfg.ConnConfig.Port, err)
	}

	return p, nil
}

// VerifySchema checks that the rate tables exist, so a pool pointed at an
// unmigrated database fails at startup rather than on the first run.
func VerifySchema(ctx context.Context, p *pgxpool.Pool, logger *logrus.Logger) error {
	var (
		now     time.Time
		missing []string
	)
	if err := p.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return fmt.Errorf("test query: %w", err)
	}
	for _, table := range rateTables {
		var exists bool
		if err := p.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists); err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema incomplete, missing tables: %s", strings.Join(missing, ", "))
	}

	logger.WithFields(logrus.Fields{
		"server_time": now.Format(time.RFC3339),
		"tables":      rateTables,
	}).Info("Database connection successful")
	return nil
}
