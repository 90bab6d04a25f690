// Package ingest runs one fetch, normalize and upsert pass over both rate
// sources.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-rates-backend/internal/models"
	"github.com/kjannette/market-rates-backend/internal/normalize"
)

type GoldFetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawGoldRecord, error)
}

type CurrencyFetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawCurrencyRecord, error)
}

type GoldStore interface {
	Upsert(ctx context.Context, rates []models.GoldRate) (int, error)
}

type CurrencyStore interface {
	Upsert(ctx context.Context, rates []models.CurrencyRate) (int, error)
}

// Notifier receives run failures and row drops. Optional.
type Notifier interface {
	RunFailed(err error)
	RowsDropped(source string, dropped, total int)
}

type Deps struct {
	Gold          GoldFetcher
	Currency      CurrencyFetcher
	GoldStore     GoldStore
	CurrencyStore CurrencyStore
	Notifier      Notifier
}

// SourceReport counts one source's records through the run.
type SourceReport struct {
	Fetched int `json:"fetched"`
	Dropped int `json:"dropped"`
	Stored  int `json:"stored"`
}

type Report struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Gold       SourceReport `json:"gold"`
	Currency   SourceReport `json:"currency"`
}

func (r *Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

type Pipeline struct {
	deps         Deps
	storeTimeout time.Duration
	logger       *logrus.Entry
	now          func() time.Time
}

func New(deps Deps, storeTimeout time.Duration, logger *logrus.Logger) *Pipeline {
	if storeTimeout <= 0 {
		storeTimeout = 30 * time.Second
	}
	return &Pipeline{
		deps:         deps,
		storeTimeout: storeTimeout,
		logger:       logger.WithField("component", "ingest"),
		now:          time.Now,
	}
}

// Run performs one pipeline pass. Both sources are fetched and parsed before
// anything is written, so a network or parse failure in either leaves the
// store untouched. Malformed rows are dropped and counted. A store failure
// aborts the run; gold is written before currency, so a currency store
// failure can follow a committed gold batch. The returned report is never
// nil.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: p.now()}
	err := p.run(ctx, report)
	report.FinishedAt = p.now()

	p.notifyDrops(report)

	log := p.logger.WithFields(logrus.Fields{
		"gold_fetched":     report.Gold.Fetched,
		"gold_dropped":     report.Gold.Dropped,
		"gold_stored":      report.Gold.Stored,
		"currency_fetched": report.Currency.Fetched,
		"currency_dropped": report.Currency.Dropped,
		"currency_stored":  report.Currency.Stored,
		"duration":         report.Duration(),
	})
	if err != nil {
		log.WithError(err).Error("Ingestion run failed")
		if p.deps.Notifier != nil {
			p.deps.Notifier.RunFailed(err)
		}
		return report, err
	}
	log.Info("Ingestion run complete")
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	rawGold, err := p.deps.Gold.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.deps.Gold.Name(), err)
	}
	report.Gold.Fetched = len(rawGold)

	rawCurrency, err := p.deps.Currency.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.deps.Currency.Name(), err)
	}
	report.Currency.Fetched = len(rawCurrency)

	gold := normalize.GoldBatch(rawGold)
	report.Gold.Dropped = gold.Dropped()
	p.logDrops(p.deps.Gold.Name(), gold.Failures)

	currency := normalize.CurrencyBatch(rawCurrency)
	report.Currency.Dropped = currency.Dropped()
	p.logDrops(p.deps.Currency.Name(), currency.Failures)

	n, err := p.storeGold(ctx, gold.Records)
	if err != nil {
		return fmt.Errorf("store %s: %w", p.deps.Gold.Name(), err)
	}
	report.Gold.Stored = n

	n, err = p.storeCurrency(ctx, currency.Records)
	if err != nil {
		return fmt.Errorf("store %s: %w", p.deps.Currency.Name(), err)
	}
	report.Currency.Stored = n
	return nil
}

func (p *Pipeline) storeGold(ctx context.Context, rates []models.GoldRate) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	return p.deps.GoldStore.Upsert(ctx, rates)
}

func (p *Pipeline) storeCurrency(ctx context.Context, rates []models.CurrencyRate) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	return p.deps.CurrencyStore.Upsert(ctx, rates)
}

func (p *Pipeline) logDrops(source string, failures []error) {
	for _, f := range failures {
		p.logger.WithField("source", source).WithError(f).Warn("Dropped malformed record")
	}
}

// notifyDrops runs once the stores are done so the notifier never holds up
// the upserts.
func (p *Pipeline) notifyDrops(report *Report) {
	if p.deps.Notifier == nil {
		return
	}
	if report.Gold.Dropped > 0 {
		p.deps.Notifier.RowsDropped(p.deps.Gold.Name(), report.Gold.Dropped, report.Gold.Fetched)
	}
	if report.Currency.Dropped > 0 {
		p.deps.Notifier.RowsDropped(p.deps.Currency.Name(), report.Currency.Dropped, report.Currency.Fetched)
	}
}
