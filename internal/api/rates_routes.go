package api

import (
	"net/http"
	"time"

	"github.com/kjannette/market-rates-backend/internal/aggregate"
	"github.com/kjannette/market-rates-backend/internal/models"
)

type seriesResponse struct {
	Granularity models.Granularity `json:"granularity"`
	Products    []string           `json:"products,omitempty"`
	Code        string             `json:"code,omitempty"`
	Buckets     []aggregate.Bucket `json:"buckets"`
}

type dashboardResponse struct {
	GeneratedAt     string              `json:"generatedAt"`
	Gold            seriesResponse      `json:"gold"`
	GoldSummary     []aggregate.Summary `json:"goldSummary"`
	Currency        seriesResponse      `json:"currency"`
	CurrencySummary *aggregate.Summary  `json:"currencySummary"`
}

func (s *Server) handleGold(w http.ResponseWriter, r *http.Request) {
	g, err := parseGranularity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	products := s.productsParam(r)

	rates, err := s.store.GoldRates(r.Context(), products)
	if err != nil {
		s.storeFailure(w, err, "failed to fetch gold rates")
		return
	}
	buckets, err := aggregate.Aggregate(aggregate.FromGold(rates), g)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Granularity: g, Products: products, Buckets: buckets})
}

func (s *Server) handleGoldSummary(w http.ResponseWriter, r *http.Request) {
	products := s.productsParam(r)
	rates, err := s.store.GoldRates(r.Context(), products)
	if err != nil {
		s.storeFailure(w, err, "failed to fetch gold rates")
		return
	}
	writeJSON(w, http.StatusOK, goldSummaries(rates, products))
}

func (s *Server) handleGoldProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.GoldProducts(r.Context())
	if err != nil {
		s.storeFailure(w, err, "failed to fetch gold products")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(products))
}

func (s *Server) handleCurrencyCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.store.CurrencyCodes(r.Context())
	if err != nil {
		s.storeFailure(w, err, "failed to fetch currency codes")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(codes))
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	code, ok := parseCurrencyCode(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid currency code, expected three letters")
		return
	}
	g, err := parseGranularity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rates, err := s.store.CurrencyRates(r.Context(), code)
	if err != nil {
		s.storeFailure(w, err, "failed to fetch currency rates")
		return
	}
	buckets, err := aggregate.Aggregate(aggregate.FromCurrency(rates), g)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Granularity: g, Code: code, Buckets: buckets})
}

func (s *Server) handleCurrencySummary(w http.ResponseWriter, r *http.Request) {
	code, ok := parseCurrencyCode(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid currency code, expected three letters")
		return
	}
	rates, err := s.store.CurrencyRates(r.Context(), code)
	if err != nil {
		s.storeFailure(w, err, "failed to fetch currency rates")
		return
	}
	summary := aggregate.Summarize(aggregate.FromCurrency(rates))
	if summary == nil {
		writeError(w, http.StatusNotFound, "no rates stored for "+code)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleDashboard serves everything the display page needs from one
// consistent snapshot so gold and currency never straddle a pipeline run.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	g, err := parseGranularity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code := s.opts.CurrencyCode
	if raw := r.URL.Query().Get("code"); raw != "" {
		var ok bool
		if code, ok = parseCurrencyCode(raw); !ok {
			writeError(w, http.StatusBadRequest, "invalid currency code, expected three letters")
			return
		}
	}
	products := s.productsParam(r)

	var gold []models.GoldRate
	var currency []models.CurrencyRate
	err = s.store.ReadSnapshot(r.Context(), func(rr RateReader) error {
		var err error
		if gold, err = rr.GoldRates(r.Context(), products); err != nil {
			return err
		}
		currency, err = rr.CurrencyRates(r.Context(), code)
		return err
	})
	if err != nil {
		s.storeFailure(w, err, "failed to read dashboard snapshot")
		return
	}

	goldBuckets, err := aggregate.Aggregate(aggregate.FromGold(gold), g)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	currencyBuckets, err := aggregate.Aggregate(aggregate.FromCurrency(currency), g)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		Gold:            seriesResponse{Granularity: g, Products: products, Buckets: goldBuckets},
		GoldSummary:     goldSummaries(gold, products),
		Currency:        seriesResponse{Granularity: g, Code: code, Buckets: currencyBuckets},
		CurrencySummary: aggregate.Summarize(aggregate.FromCurrency(currency)),
	})
}

// goldSummaries returns one summary per requested product that has data,
// in request order.
func goldSummaries(rates []models.GoldRate, products []string) []aggregate.Summary {
	byProduct := make(map[string][]models.GoldRate, len(products))
	for _, g := range rates {
		byProduct[g.ProductName] = append(byProduct[g.ProductName], g)
	}

	out := make([]aggregate.Summary, 0, len(products))
	for _, p := range products {
		if s := aggregate.Summarize(aggregate.FromGold(byProduct[p])); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
