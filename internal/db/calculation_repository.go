package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/opdps/internal/model"
)

// CalculationRepository stores calculation history.
type CalculationRepository struct {
	pool *pgxpool.Pool
}

// NewCalculationRepository creates a new CalculationRepository.
func NewCalculationRepository(pool *pgxpool.Pool) *CalculationRepository {
	return &CalculationRepository{pool: pool}
}

// Insert stores rec and returns its ID. Parameters and Results must hold
// valid JSON documents.
func (r *CalculationRepository) Insert(ctx context.Context, rec model.CalculationRecord) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO calculation_records (kind, operator_id, fingerprint, parameters, results)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		rec.Kind, rec.OperatorID, rec.Fingerprint, string(rec.Parameters), string(rec.Results),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting %s record: %w", rec.Kind, err)
	}
	return id, nil
}

// FindByFingerprint returns the most recent record with the given
// fingerprint, or nil if none exists.
func (r *CalculationRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*model.CalculationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, operator_id, fingerprint, parameters, results, created_at
		FROM calculation_records
		WHERE fingerprint = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("querying fingerprint %s: %w", fingerprint, err)
	}
	recs, err := pgx.CollectRows(rows, scanCalculation)
	if err != nil {
		return nil, fmt.Errorf("scanning fingerprint %s: %w", fingerprint, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Recent returns up to limit records, newest first. An empty kind matches
// every kind.
func (r *CalculationRepository) Recent(ctx context.Context, kind string, limit int) ([]model.CalculationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, operator_id, fingerprint, parameters, results, created_at
		FROM calculation_records
		WHERE $1 = '' OR kind = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("listing calculation records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, scanCalculation)
	if err != nil {
		return nil, fmt.Errorf("scanning calculation records: %w", err)
	}
	return recs, nil
}

// ForOperator returns the history of one operator, newest first.
func (r *CalculationRepository) ForOperator(ctx context.Context, operatorID int64, limit int) ([]model.CalculationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, operator_id, fingerprint, parameters, results, created_at
		FROM calculation_records
		WHERE operator_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, operatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing records of operator %d: %w", operatorID, err)
	}
	recs, err := pgx.CollectRows(rows, scanCalculation)
	if err != nil {
		return nil, fmt.Errorf("scanning records of operator %d: %w", operatorID, err)
	}
	return recs, nil
}

func scanCalculation(row pgx.CollectableRow) (model.CalculationRecord, error) {
	var rec model.CalculationRecord
	err := row.Scan(&rec.ID, &rec.Kind, &rec.OperatorID, &rec.Fingerprint, &rec.Parameters, &rec.Results, &rec.CreatedAt)
	return rec, err
}
