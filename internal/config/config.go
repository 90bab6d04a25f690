package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var defaultGoldProducts = []string{"Nữ trang 99.99", "Nữ trang 99.99 - Bán Lẻ"}

type Config struct {
	// Database
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string
	DBMaxConns  int

	// Sources
	GoldURL      string
	CurrencyURL  string
	GoldRegion   string
	UserAgent    string
	FetchTimeout time.Duration

	// Store
	StoreTimeout time.Duration

	// Read views
	GoldProducts []string
	CurrencyCode string

	// Scheduling
	IngestSchedule string
	IngestOnStart  bool

	// API
	APIPort         int
	CORSAllowOrigin string

	// Notifications
	WebhookURL string
	BotName    string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Database
		DatabaseURL: envStr("DATABASE_URL", ""),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBName:      envStr("DB_NAME", "market_rates"),
		DBUser:      envStr("DB_USER", ""),
		DBPassword:  envStr("DB_PASSWORD", ""),
		DBMaxConns:  envInt("DB_MAX_CONNS", 10),

		// Sources
		GoldURL:      envStr("GOLD_URL", ""),
		CurrencyURL:  envStr("CURRENCY_URL", ""),
		GoldRegion:   envStr("GOLD_REGION", "hcm"),
		UserAgent:    envStr("USER_AGENT", "market-rates/0.1"),
		FetchTimeout: envDuration("FETCH_TIMEOUT", 30*time.Second),

		// Store
		StoreTimeout: envDuration("STORE_TIMEOUT", 30*time.Second),

		// Read views
		GoldProducts: envList("GOLD_PRODUCTS", defaultGoldProducts),
		CurrencyCode: strings.ToUpper(envStr("CURRENCY_CODE", "USD")),

		// Scheduling
		IngestSchedule: envStr("INGEST_SCHEDULE", "@every 1h"),
		IngestOnStart:  envBool("INGEST_ON_START", true),

		// API
		APIPort:         envInt("API_PORT", 3001),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Notifications
		WebhookURL: envStr("WEBHOOK_URL", ""),
		BotName:    envStr("BOT_NAME", "MarketRates"),

		// Logging
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "text"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.GoldURL == "" {
		errs = append(errs, "GOLD_URL is required")
	}
	if c.CurrencyURL == "" {
		errs = append(errs, "CURRENCY_URL is required")
	}
	if c.DatabaseURL == "" && c.DBUser == "" {
		errs = append(errs, "DB_USER is required when DATABASE_URL is not set")
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, "FETCH_TIMEOUT must be positive")
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, "STORE_TIMEOUT must be positive")
	}
	if len(c.GoldProducts) == 0 {
		errs = append(errs, "GOLD_PRODUCTS must name at least one product")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Print logs the effective configuration. The database password is never logged.
func (c *Config) Print(logger *logrus.Logger) {
	logger.WithFields(logrus.Fields{
		"db":              c.redactedDSN(),
		"gold_url":        c.GoldURL,
		"gold_region":     c.GoldRegion,
		"currency_url":    c.CurrencyURL,
		"fetch_timeout":   c.FetchTimeout,
		"store_timeout":   c.StoreTimeout,
		"gold_products":   c.GoldProducts,
		"currency_code":   c.CurrencyCode,
		"ingest_schedule": c.IngestSchedule,
		"ingest_on_start": c.IngestOnStart,
		"api_port":        c.APIPort,
		"webhook":         boolLabel(c.WebhookURL != "", "configured", "not set"),
	}).Info("Configuration loaded")
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RunTimeout bounds one full pipeline run: the two fetches and the two store
// writes run one after another, each with its own timeout.
func (c *Config) RunTimeout() time.Duration {
	return 2*c.FetchTimeout + 2*c.StoreTimeout
}

func (c *Config) redactedDSN() string {
	u, err := url.Parse(c.DSN())
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// bare integers are seconds
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
