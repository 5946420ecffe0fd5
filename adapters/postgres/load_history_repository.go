package postgres

import (
	"context"

	"sheetview/domain/load"
	"sheetview/ports"

	"github.com/jmoiron/sqlx"
)

// LoadHistoryRepositoryImpl implements LoadHistoryRepository for PostgreSQL
type LoadHistoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewLoadHistoryRepository creates a new PostgreSQL load history repository
func NewLoadHistoryRepository(db *sqlx.DB) ports.LoadHistoryRepository {
	return &LoadHistoryRepositoryImpl{db: db}
}

// Record inserts one load attempt
func (r *LoadHistoryRepositoryImpl) Record(ctx context.Context, rec *load.Record) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO load_history (
			id, generation, source_kind, source, format, sheet_count,
			bytes, checksum, status, error, started_at, duration_ms
		) VALUES (
			:id, :generation, :source_kind, :source, :format, :sheet_count,
			:bytes, :checksum, :status, :error, :started_at, :duration_ms
		)
	`, rec)
	return err
}

// Recent returns up to limit records, newest first
func (r *LoadHistoryRepositoryImpl) Recent(ctx context.Context, limit int) ([]*load.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	records := []*load.Record{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, generation, source_kind, source, format, sheet_count,
		       bytes, checksum, status, error, started_at, duration_ms
		FROM load_history
		ORDER BY started_at DESC, generation DESC
		LIMIT $1
	`, limit)
	return records, err
}
