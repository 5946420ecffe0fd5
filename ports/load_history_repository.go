package ports

import (
	"context"

	"sheetview/domain/load"
)

// LoadHistoryRepository persists load attempts
type LoadHistoryRepository interface {
	Record(ctx context.Context, rec *load.Record) error
	Recent(ctx context.Context, limit int) ([]*load.Record, error)
}
