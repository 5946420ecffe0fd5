package ports

import (
	"context"

	"sheetview/domain/load"
	"sheetview/domain/sheet"
)

// SourceLoader acquires one document. Each call is single-shot: no retries,
// no streaming. Failures are *core.LoadError values.
type SourceLoader interface {
	Load(ctx context.Context) (*sheet.Document, error)
	Kind() load.SourceKind
	// Describe names the source for logs and history (path or URL).
	Describe() string
}
