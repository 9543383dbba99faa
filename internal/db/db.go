package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool and hands out repositories bound to it.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	slog.Debug("database connected", "max_conns", pool.Config().MaxConns)
	return &DB{pool: pool}, nil
}

// FromPool wraps an existing pool.
func FromPool(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Close closes the database connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the underlying pgx pool.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Operators returns the operator repository.
func (d *DB) Operators() *OperatorRepository {
	return NewOperatorRepository(d.pool)
}

// Calculations returns the calculation history repository.
func (d *DB) Calculations() *CalculationRepository {
	return NewCalculationRepository(d.pool)
}

// Imports returns the import log repository.
func (d *DB) Imports() *ImportRepository {
	return NewImportRepository(d.pool)
}
