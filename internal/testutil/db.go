package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/kjannette/market-rates-backend/internal/db"
)

// DSN returns the integration-test connection string.
// Connection details come from env vars or sensible defaults.
func DSN() string {
	_ = godotenv.Load("../../.env")

	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := EnvOr("DB_HOST", "localhost")
	port := EnvOr("DB_PORT", "5432")
	name := EnvOr("DB_NAME", "market_rates_test")
	user := EnvOr("DB_USER", "postgres")
	pass := EnvOr("DB_PASSWORD", "")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// SetupPool connects to the test database and applies migrations. The test
// is skipped when no database is reachable.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := DSN()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn, db.PoolOptions{MaxConns: 4, MinConns: 1, ConnectTimeout: 3 * time.Second})
	if err != nil {
		t.Skipf("test database unreachable: %v", err)
	}
	if err := db.Migrate(dsn); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

// Day is a UTC calendar date, the form capture dates are stored in.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
