package ports

import (
	"context"

	"sheetview/domain/sheet"
)

// WorkbookParser is the parsing boundary: bytes in, workbook out. Format
// decoding lives behind this interface so the normalizer and range decoder
// never depend on a particular library.
type WorkbookParser interface {
	Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error)
}

// FormatParser decodes exactly one format
type FormatParser interface {
	WorkbookParser
	Format() sheet.Format
}
