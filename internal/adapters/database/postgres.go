package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/kevin07696/order-service/internal/db/migrations"
	"github.com/kevin07696/order-service/pkg/observability"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// PostgreSQLConfig sizes the pool. DatabaseURL is a postgres:// DSN.
type PostgreSQLConfig struct {
	DatabaseURL string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPostgreSQLConfig returns default configuration
func DefaultPostgreSQLConfig(databaseURL string) *PostgreSQLConfig {
	return &PostgreSQLConfig{
		DatabaseURL:     databaseURL,
		MaxConns:        25,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// PostgreSQLAdapter owns the pgx connection pool
type PostgreSQLAdapter struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	config *PostgreSQLConfig
}

// NewPostgreSQLAdapter creates a new PostgreSQL adapter with connection pooling
func NewPostgreSQLAdapter(ctx context.Context, cfg *PostgreSQLConfig, logger *zap.Logger) (*PostgreSQLAdapter, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.Uint16("port", poolConfig.ConnConfig.Port),
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	return &PostgreSQLAdapter{
		pool:   pool,
		logger: logger,
		config: cfg,
	}, nil
}

// Pool exposes the pool to the repositories
func (a *PostgreSQLAdapter) Pool() *pgxpool.Pool {
	return a.pool
}

// Close closes the database connection pool
func (a *PostgreSQLAdapter) Close() {
	a.logger.Info("Closing PostgreSQL connection pool")
	a.pool.Close()
}

// Ping performs a health check on the database connection
func (a *PostgreSQLAdapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

// Migrate applies every pending embedded migration
func (a *PostgreSQLAdapter) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(a.pool)
	defer db.Close()
	return RunMigrations(ctx, db, "up")
}

// RunMigrations runs a goose command against the embedded migration set
func RunMigrations(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// StartPoolMonitoring publishes pool gauges every interval until ctx is done.
// It warns once utilization crosses 80% and again when it recovers.
func (a *PostgreSQLAdapter) StartPoolMonitoring(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		saturated := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			stat := a.pool.Stat()
			observability.RecordPoolStats(stat.AcquiredConns(), stat.IdleConns(), stat.MaxConns())

			busy := poolUtilization(stat.AcquiredConns(), stat.MaxConns()) > 80
			switch {
			case busy && !saturated:
				a.logger.Warn("Database pool highly utilized",
					zap.Int32("acquired", stat.AcquiredConns()),
					zap.Int32("max", stat.MaxConns()),
					zap.Int64("empty_acquires", stat.EmptyAcquireCount()),
				)
			case !busy && saturated:
				a.logger.Info("Database pool utilization recovered",
					zap.Int32("acquired", stat.AcquiredConns()),
				)
			}
			saturated = busy
		}
	}()
}

func poolUtilization(acquired, max int32) float64 {
	if max <= 0 {
		return 0
	}
	return float64(acquired) / float64(max) * 100
}
