package memory

import (
	"context"
	"testing"

	"sheetview/domain/load"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHistoryNewestFirst(t *testing.T) {
	repo := NewLoadHistoryRepository(0)
	ctx := context.Background()
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, repo.Record(ctx, &load.Record{Generation: i, Status: load.StatusLoaded}))
	}

	recs, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(3), recs[0].Generation)
	assert.Equal(t, uint64(2), recs[1].Generation)

	all, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLoadHistoryCapacity(t *testing.T) {
	repo := NewLoadHistoryRepository(2)
	ctx := context.Background()
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, repo.Record(ctx, &load.Record{Generation: i}))
	}

	recs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(5), recs[0].Generation)
	assert.Equal(t, uint64(4), recs[1].Generation)
}

func TestLoadHistoryCopiesRecords(t *testing.T) {
	repo := NewLoadHistoryRepository(5)
	rec := &load.Record{Source: "a.csv"}
	require.NoError(t, repo.Record(context.Background(), rec))
	rec.Source = "mutated"

	recs, _ := repo.Recent(context.Background(), 1)
	assert.Equal(t, "a.csv", recs[0].Source)
}
