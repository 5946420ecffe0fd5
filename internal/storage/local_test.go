package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"sheetview/domain/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepWritesUniqueFile(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalFileStorageWithPath(dir)
	s.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	path, err := s.Keep(context.Background(), &sheet.Document{Name: "../report.xlsx", Data: []byte("PK")})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^report_20260304_050607_[0-9a-f-]{8}\.xlsx$`), filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)

	require.NoError(t, s.Delete(context.Background(), path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, s.Delete(context.Background(), path))
}

func TestKeepBlankName(t *testing.T) {
	s := NewLocalFileStorageWithPath(t.TempDir())
	path, err := s.Keep(context.Background(), &sheet.Document{Data: []byte("x")})
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "upload_")
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalFileStorage(&StorageConfig{BasePath: dir, CleanupAfter: time.Hour})

	old := filepath.Join(dir, "old.csv")
	fresh := filepath.Join(dir, "fresh.csv")
	require.NoError(t, os.WriteFile(old, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("b"), 0o644))
	twoHoursAgo := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, twoHoursAgo, twoHoursAgo))

	removed, err := s.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
}

func TestPruneMissingDir(t *testing.T) {
	s := NewLocalFileStorageWithPath(filepath.Join(t.TempDir(), "absent"))
	removed, err := s.Prune(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, removed)
}
