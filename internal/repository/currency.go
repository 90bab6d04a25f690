package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kjannette/market-rates-backend/internal/models"
)

const upsertCurrencySQL = `
	INSERT INTO currency_rates (id, currency_code, currency_name, buy, transfer, sell)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id, currency_code) DO UPDATE
	SET buy = EXCLUDED.buy, transfer = EXCLUDED.transfer, sell = EXCLUDED.sell`

type CurrencyRepo struct {
	db DBTX
}

func NewCurrencyRepo(db DBTX) *CurrencyRepo {
	return &CurrencyRepo{db: db}
}

// Upsert writes the batch atomically. Only buy/transfer/sell change on conflict;
// the stored currency name is left as first recorded.
func (r *CurrencyRepo) Upsert(ctx context.Context, rates []models.CurrencyRate) (int, error) {
	b := &pgx.Batch{}
	keys := make([]string, 0, len(rates))
	for _, c := range rates {
		b.Queue(upsertCurrencySQL, c.CaptureDate, c.CurrencyCode, c.CurrencyName, c.Buy, c.Transfer, c.Sell)
		keys = append(keys, c.CaptureDate.Format(models.DateLayout)+"/"+c.CurrencyCode)
	}
	return applyBatch(ctx, r.db, "upsert currency_rates", b, keys)
}

// ListByCode returns every row for one currency, newest first.
func (r *CurrencyRepo) ListByCode(ctx context.Context, code string) ([]models.CurrencyRate, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, currency_code, currency_name, buy, transfer, sell FROM currency_rates
		 WHERE currency_code = $1
		 ORDER BY id DESC`,
		code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCurrency(rows)
}

// Get returns the row for a natural key, or nil if absent.
func (r *CurrencyRepo) Get(ctx context.Context, day time.Time, code string) (*models.CurrencyRate, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, currency_code, currency_name, buy, transfer, sell FROM currency_rates
		 WHERE id = $1 AND currency_code = $2`,
		day, code,
	)
	c, err := scanCurrency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// Codes lists every currency code ever stored.
func (r *CurrencyRepo) Codes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT currency_code FROM currency_rates ORDER BY currency_code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCurrency(row scannable) (*models.CurrencyRate, error) {
	var c models.CurrencyRate
	err := row.Scan(&c.CaptureDate, &c.CurrencyCode, &c.CurrencyName, &c.Buy, &c.Transfer, &c.Sell)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCurrency(rows rowsIter) ([]models.CurrencyRate, error) {
	var out []models.CurrencyRate
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
