// Package source implements the loading strategies that turn a local file,
// an uploaded stream or a remote URL into a sheet.Document.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sheetview/domain/core"
	"sheetview/domain/load"
	"sheetview/domain/sheet"
)

// DefaultMaxBytes bounds a single document when no limit is configured
const DefaultMaxBytes int64 = 100 << 20

// ErrTooLarge is returned when a document exceeds the loader's byte limit
var ErrTooLarge = errors.New("document exceeds size limit")

// FileLoader reads a local path or an uploaded stream fully into memory
type FileLoader struct {
	Path        string
	Name        string
	ContentType string
	MaxBytes    int64

	reader io.Reader
}

// NewFileLoader creates a loader for a file on the local filesystem
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{
		Path:     path,
		Name:     filepath.Base(path),
		MaxBytes: DefaultMaxBytes,
	}
}

// NewUploadLoader creates a loader for an already-open upload stream. The
// stream is consumed by the first Load.
func NewUploadLoader(name, contentType string, r io.Reader) *FileLoader {
	return &FileLoader{
		Name:        filepath.Base(name),
		ContentType: contentType,
		MaxBytes:    DefaultMaxBytes,
		reader:      r,
	}
}

func (l *FileLoader) Kind() load.SourceKind { return load.SourceFile }

// Describe returns the path, or the upload's file name
func (l *FileLoader) Describe() string {
	if l.Path != "" {
		return l.Path
	}
	return l.Name
}

func (l *FileLoader) Load(ctx context.Context) (*sheet.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewLoadError(core.IOFailure, l.Describe(), err)
	}

	r := l.reader
	if r == nil {
		if l.Path == "" {
			return nil, core.NewLoadError(core.IOFailure, l.Describe(), errors.New("no path or stream"))
		}
		f, err := os.Open(l.Path)
		if err != nil {
			return nil, core.NewLoadError(core.IOFailure, l.Describe(), err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, core.NewLoadError(core.IOFailure, l.Describe(), err)
		}
		if info.IsDir() {
			return nil, core.NewLoadError(core.IOFailure, l.Describe(), fmt.Errorf("%s is a directory", l.Path))
		}
		r = f
	}

	data, err := readLimited(r, l.MaxBytes)
	if err != nil {
		return nil, core.NewLoadError(core.IOFailure, l.Describe(), err)
	}
	return &sheet.Document{Name: l.Name, ContentType: l.ContentType, Data: data}, nil
}

// readLimited reads r to EOF, failing once more than max bytes arrive
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return data, nil
}
