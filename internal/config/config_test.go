package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_MAX_CONNS",
		"GOLD_URL", "CURRENCY_URL", "GOLD_REGION", "GOLD_PRODUCTS", "CURRENCY_CODE",
		"FETCH_TIMEOUT", "STORE_TIMEOUT", "INGEST_SCHEDULE", "INGEST_ON_START",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hcm", cfg.GoldRegion)
	assert.Equal(t, "USD", cfg.CurrencyCode)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 10, cfg.DBMaxConns)
	// two fetches plus two store writes, each with its own budget
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout())
	assert.Equal(t, "@every 1h", cfg.IngestSchedule)
	assert.True(t, cfg.IngestOnStart)
	assert.Equal(t, []string{"Nữ trang 99.99", "Nữ trang 99.99 - Bán Lẻ"}, cfg.GoldProducts)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOLD_PRODUCTS", " SJC 1L , ,Nhẫn 99.99 ")
	t.Setenv("CURRENCY_CODE", "eur")
	t.Setenv("FETCH_TIMEOUT", "45")
	t.Setenv("STORE_TIMEOUT", "2m")
	t.Setenv("INGEST_ON_START", "no")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"SJC 1L", "Nhẫn 99.99"}, cfg.GoldProducts)
	assert.Equal(t, "EUR", cfg.CurrencyCode)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2*time.Minute, cfg.StoreTimeout)
	assert.False(t, cfg.IngestOnStart)
	assert.Equal(t, 90*time.Second+4*time.Minute, cfg.RunTimeout())
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOLD_URL is required")
	assert.Contains(t, err.Error(), "CURRENCY_URL is required")
	assert.Contains(t, err.Error(), "DB_USER is required")

	cfg.GoldURL = "https://example.com/gold"
	cfg.CurrencyURL = "https://example.com/rates.xml"
	cfg.DatabaseURL = "postgres://u:p@localhost:5432/x"
	assert.NoError(t, cfg.Validate())

	cfg.FetchTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg.FetchTimeout = time.Second
	cfg.DBMaxConns = 0
	assert.ErrorContains(t, cfg.Validate(), "DB_MAX_CONNS must be positive")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "rates", DBPassword: "p@ss word", DBHost: "db", DBPort: 5433, DBName: "market"}
	dsn := cfg.DSN()
	assert.True(t, strings.HasPrefix(dsn, "postgres://rates:p%40ss%20word@db:5433/market"), dsn)
	assert.NotContains(t, cfg.redactedDSN(), "p%40ss")

	cfg.DatabaseURL = "postgres://other"
	assert.Equal(t, "postgres://other", cfg.DSN())
}
