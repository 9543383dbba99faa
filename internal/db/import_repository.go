package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/opdps/internal/model"
)

// ImportRepository logs data imports.
type ImportRepository struct {
	pool *pgxpool.Pool
}

// NewImportRepository creates a new ImportRepository.
func NewImportRepository(pool *pgxpool.Pool) *ImportRepository {
	return &ImportRepository{pool: pool}
}

// Insert stores rec and returns its ID.
func (r *ImportRepository) Insert(ctx context.Context, rec model.ImportRecord) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO import_records (format, file_name, record_count, status, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		rec.Format, rec.FileName, rec.RecordCount, rec.Status, rec.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import record for %q: %w", rec.FileName, err)
	}
	return id, nil
}

// Recent returns up to limit import records, newest first.
func (r *ImportRepository) Recent(ctx context.Context, limit int) ([]model.ImportRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, format, file_name, record_count, status, error_message, created_at
		FROM import_records
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ImportRecord, error) {
		var rec model.ImportRecord
		err := row.Scan(&rec.ID, &rec.Format, &rec.FileName, &rec.RecordCount, &rec.Status, &rec.ErrorMessage, &rec.CreatedAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning import records: %w", err)
	}
	return recs, nil
}
