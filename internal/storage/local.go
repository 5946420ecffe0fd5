// Package storage keeps copies of uploaded originals on the local filesystem.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sheetview/domain/sheet"

	"github.com/google/uuid"
)

// StorageConfig configures LocalFileStorage
type StorageConfig struct {
	BasePath     string        // Directory uploads are written to
	ChunkSize    int           // Copy buffer size
	CleanupAfter time.Duration // Prune removes files older than this; 0 keeps everything
}

// DefaultStorageConfig returns sensible defaults
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		BasePath:     "uploads",
		ChunkSize:    1024 * 1024, // 1MB
		CleanupAfter: 7 * 24 * time.Hour,
	}
}

// LocalFileStorage implements ports.DocumentStore using the local filesystem
type LocalFileStorage struct {
	config *StorageConfig
	now    func() time.Time
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(config *StorageConfig) *LocalFileStorage {
	if config == nil {
		config = DefaultStorageConfig()
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultStorageConfig().ChunkSize
	}
	return &LocalFileStorage{config: config, now: time.Now}
}

// NewLocalFileStorageWithPath creates a new local file storage with a simple path
func NewLocalFileStorageWithPath(basePath string) *LocalFileStorage {
	config := DefaultStorageConfig()
	config.BasePath = basePath
	return NewLocalFileStorage(config)
}

// Keep writes doc under a unique name: <base>_<timestamp>_<uuid8><ext>
func (s *LocalFileStorage) Keep(ctx context.Context, doc *sheet.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Store(ctx, bytes.NewReader(doc.Data), doc.Name)
}

// Store copies r to a uniquely named file and returns its path
func (s *LocalFileStorage) Store(ctx context.Context, r io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.config.BasePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	filePath := filepath.Join(s.config.BasePath, s.uniqueName(filename))

	destFile, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	buf := make([]byte, s.config.ChunkSize)
	if _, err := io.CopyBuffer(destFile, r, buf); err != nil {
		os.Remove(filePath) // Clean up on failure
		return "", fmt.Errorf("failed to copy file contents: %w", err)
	}
	return filePath, nil
}

func (s *LocalFileStorage) uniqueName(filename string) string {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "." || filename == string(filepath.Separator) || filename == "" {
		filename = "upload"
	}
	ext := filepath.Ext(filename)
	baseName := filename[:len(filename)-len(ext)]
	timestamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s%s", baseName, timestamp, uuid.New().String()[:8], ext)
}

// Delete removes a file from storage
func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Prune deletes stored files older than CleanupAfter and returns how many
// were removed
func (s *LocalFileStorage) Prune(ctx context.Context) (int, error) {
	if s.config.CleanupAfter <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.config.BasePath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list storage directory: %w", err)
	}

	cutoff := s.now().Add(-s.config.CleanupAfter)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, filepath.Join(s.config.BasePath, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
