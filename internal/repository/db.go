package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories work
// the same inside and outside a snapshot.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoreError wraps any failure while writing a batch. Nothing from the
// batch is committed when it is returned.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Reader bundles the read side for callers that want one consistent view.
type Reader struct {
	Gold     *GoldRepo
	Currency *CurrencyRepo
}

// Snapshot runs fn against a read-only, repeatable-read transaction so every
// query inside fn sees the same committed state, even while a pipeline run is
// writing concurrently.
func Snapshot(ctx context.Context, pool *pgxpool.Pool, fn func(Reader) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(Reader{Gold: NewGoldRepo(tx), Currency: NewCurrencyRepo(tx)}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// applyBatch queues one statement per record inside a single transaction and
// commits only if every statement succeeded.
func applyBatch(ctx context.Context, db DBTX, op string, b *pgx.Batch, keys []string) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, &StoreError{Op: op, Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, &StoreError{Op: op, Key: keys[i], Err: err}
		}
	}
	if err := br.Close(); err != nil {
		return 0, &StoreError{Op: op, Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &StoreError{Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return b.Len(), nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}
