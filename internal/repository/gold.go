package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kjannette/market-rates-backend/internal/models"
)

const upsertGoldSQL = `
	INSERT INTO gold_rates (id, product_name, buy, sell)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id, product_name) DO UPDATE SET buy = EXCLUDED.buy, sell = EXCLUDED.sell`

type GoldRepo struct {
	db DBTX
}

func NewGoldRepo(db DBTX) *GoldRepo {
	return &GoldRepo{db: db}
}

// Upsert writes the batch atomically: insert new keys, overwrite buy/sell on
// existing ones. It returns the number of records applied.
func (r *GoldRepo) Upsert(ctx context.Context, rates []models.GoldRate) (int, error) {
	b := &pgx.Batch{}
	keys := make([]string, 0, len(rates))
	for _, g := range rates {
		b.Queue(upsertGoldSQL, g.CaptureDate, g.ProductName, g.Buy, g.Sell)
		keys = append(keys, g.CaptureDate.Format(models.DateLayout)+"/"+g.ProductName)
	}
	return applyBatch(ctx, r.db, "upsert gold_rates", b, keys)
}

// ListByProducts returns every row for the named products, newest first.
func (r *GoldRepo) ListByProducts(ctx context.Context, products []string) ([]models.GoldRate, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, product_name, buy, sell FROM gold_rates
		 WHERE product_name = ANY($1)
		 ORDER BY id DESC, product_name ASC`,
		products,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGold(rows)
}

// Get returns the row for a natural key, or nil if absent.
func (r *GoldRepo) Get(ctx context.Context, day time.Time, product string) (*models.GoldRate, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, product_name, buy, sell FROM gold_rates WHERE id = $1 AND product_name = $2`,
		day, product,
	)
	g, err := scanGold(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// Products lists the distinct product names on the most recent capture date.
func (r *GoldRepo) Products(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT product_name FROM gold_rates
		 WHERE id = (SELECT MAX(id) FROM gold_rates)
		 ORDER BY product_name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanGold(row scannable) (*models.GoldRate, error) {
	var g models.GoldRate
	if err := row.Scan(&g.CaptureDate, &g.ProductName, &g.Buy, &g.Sell); err != nil {
		return nil, err
	}
	return &g, nil
}

func collectGold(rows rowsIter) ([]models.GoldRate, error) {
	var out []models.GoldRate
	for rows.Next() {
		g, err := scanGold(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}
