package ports

import (
	"context"

	"sheetview/domain/sheet"
)

// DocumentStore keeps a copy of loaded originals
type DocumentStore interface {
	// Keep stores doc and returns where it was written.
	Keep(ctx context.Context, doc *sheet.Document) (string, error)
}
