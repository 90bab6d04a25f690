package api

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/market-rates-backend/internal/models"
	"github.com/kjannette/market-rates-backend/internal/repository"
)

// RateReader is the read contract the display layer consumes. Lists are
// newest first.
type RateReader interface {
	GoldRates(ctx context.Context, products []string) ([]models.GoldRate, error)
	CurrencyRates(ctx context.Context, code string) ([]models.CurrencyRate, error)
	GoldProducts(ctx context.Context) ([]string, error)
	CurrencyCodes(ctx context.Context) ([]string, error)
}

// Store adds snapshot reads and a liveness check to RateReader.
type Store interface {
	RateReader
	// ReadSnapshot calls fn with a reader bound to one consistent snapshot.
	ReadSnapshot(ctx context.Context, fn func(RateReader) error) error
	Ping(ctx context.Context) error
}

// PGStore serves reads from Postgres.
type PGStore struct {
	pool *pgxpool.Pool
	repoReader
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{
		pool: pool,
		repoReader: repoReader{repository.Reader{
			Gold:     repository.NewGoldRepo(pool),
			Currency: repository.NewCurrencyRepo(pool),
		}},
	}
}

func (s *PGStore) ReadSnapshot(ctx context.Context, fn func(RateReader) error) error {
	return repository.Snapshot(ctx, s.pool, func(r repository.Reader) error {
		return fn(repoReader{r})
	})
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type repoReader struct {
	r repository.Reader
}

func (a repoReader) GoldRates(ctx context.Context, products []string) ([]models.GoldRate, error) {
	return a.r.Gold.ListByProducts(ctx, products)
}

func (a repoReader) CurrencyRates(ctx context.Context, code string) ([]models.CurrencyRate, error) {
	return a.r.Currency.ListByCode(ctx, code)
}

func (a repoReader) GoldProducts(ctx context.Context) ([]string, error) {
	return a.r.Gold.Products(ctx)
}

func (a repoReader) CurrencyCodes(ctx context.Context) ([]string, error) {
	return a.r.Currency.Codes(ctx)
}
