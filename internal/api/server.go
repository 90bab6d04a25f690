package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-rates-backend/internal/models"
	"github.com/kjannette/market-rates-backend/internal/scheduler"
)

var currencyCodeRegexp = regexp.MustCompile(`^[A-Za-z]{3}$`)

// IngestStatus reports the last pipeline run. *scheduler.Scheduler
// satisfies it.
type IngestStatus interface {
	LastRun() *scheduler.RunStatus
}

type Options struct {
	Port            int
	CORSAllowOrigin string
	// Defaults for requests that do not name a product set or currency.
	GoldProducts []string
	CurrencyCode string
}

type Server struct {
	store      Store
	ingest     IngestStatus
	opts       Options
	logger     *logrus.Entry
	httpServer *http.Server
}

// NewServer wires the read API. ingest may be nil when no scheduler runs in
// this process.
func NewServer(store Store, ingest IngestStatus, opts Options, logger *logrus.Logger) *Server {
	if opts.CurrencyCode == "" {
		opts.CurrencyCode = "USD"
	}
	s := &Server{
		store:  store,
		ingest: ingest,
		opts:   opts,
		logger: logger.WithField("component", "api"),
	}

	mux := http.NewServeMux()

	// Gold
	mux.HandleFunc("GET /v1/gold", s.handleGold)
	mux.HandleFunc("GET /v1/gold/summary", s.handleGoldSummary)
	mux.HandleFunc("GET /v1/gold/products", s.handleGoldProducts)

	// Currency
	mux.HandleFunc("GET /v1/currency", s.handleCurrencyCodes)
	mux.HandleFunc("GET /v1/currency/{code}", s.handleCurrency)
	mux.HandleFunc("GET /v1/currency/{code}/summary", s.handleCurrencySummary)

	// Combined view
	mux.HandleFunc("GET /v1/dashboard", s.handleDashboard)

	// Ingestion
	mux.HandleFunc("GET /v1/ingest/status", s.handleIngestStatus)

	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      corsMiddleware(mux, opts.CORSAllowOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func parseGranularity(r *http.Request) (models.Granularity, error) {
	return models.ParseGranularity(r.URL.Query().Get("granularity"))
}

func parseCurrencyCode(raw string) (string, bool) {
	if !currencyCodeRegexp.MatchString(raw) {
		return "", false
	}
	return strings.ToUpper(raw), true
}

// productsParam reads repeated ?product= values, falling back to the
// configured set.
func (s *Server) productsParam(r *http.Request) []string {
	var out []string
	for _, p := range r.URL.Query()["product"] {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return s.opts.GoldProducts
	}
	return out
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) storeFailure(w http.ResponseWriter, err error, msg string) {
	s.logger.WithError(err).Error(msg)
	writeError(w, http.StatusInternalServerError, msg)
}
