// Package memory provides in-process repository implementations used when
// no database is configured.
package memory

import (
	"context"
	"sync"

	"sheetview/domain/load"
)

// DefaultHistoryCapacity bounds the in-memory history
const DefaultHistoryCapacity = 200

// LoadHistoryRepository keeps the most recent load records in a ring
type LoadHistoryRepository struct {
	mu       sync.RWMutex
	records  []*load.Record
	capacity int
}

// NewLoadHistoryRepository creates a repository holding at most capacity
// records; capacity <= 0 uses DefaultHistoryCapacity
func NewLoadHistoryRepository(capacity int) *LoadHistoryRepository {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &LoadHistoryRepository{capacity: capacity}
}

func (r *LoadHistoryRepository) Record(ctx context.Context, rec *load.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := *rec

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, &copied)
	if len(r.records) > r.capacity {
		r.records = r.records[len(r.records)-r.capacity:]
	}
	return nil
}

// Recent returns up to limit records, newest first
func (r *LoadHistoryRepository) Recent(ctx context.Context, limit int) ([]*load.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]*load.Record, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *r.records[i]
		out = append(out, &copied)
	}
	return out, nil
}
