package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/order-service/internal/domain/ports"
)

var _ ports.DBPort = (*DBExecutor)(nil)

// DBExecutor implements the DBPort interface for PostgreSQL
type DBExecutor struct {
	pool *pgxpool.Pool
}

// NewDBExecutor creates a new PostgreSQL database executor
func NewDBExecutor(pool *pgxpool.Pool) *DBExecutor {
	return &DBExecutor{pool: pool}
}

// GetDB returns the underlying database connection pool
func (db *DBExecutor) GetDB() *pgxpool.Pool {
	return db.pool
}

// WithTransaction executes fn within a read-committed write transaction.
// Row locks taken with SELECT ... FOR UPDATE are held until fn returns.
func (db *DBExecutor) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return db.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// WithReadOnlyTransaction executes fn within a read-only transaction
func (db *DBExecutor) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return db.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (db *DBExecutor) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, opts)
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
