// Package excel implements the parsing boundary: one adapter per spreadsheet
// format, each wrapping a third-party decoder, behind a Registry that picks
// the adapter for a document.
package excel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sheetview/domain/core"
	"sheetview/domain/sheet"
	"sheetview/internal"
	"sheetview/ports"
)

// Registry dispatches documents to the adapter for their format
type Registry struct {
	parsers map[sheet.Format]ports.FormatParser
	logger  *internal.Logger
}

// NewRegistry creates a registry with every built-in adapter registered
func NewRegistry(config ParserConfig) *Registry {
	r := NewEmptyRegistry()
	r.Register(NewXLSXParser(config))
	r.Register(NewXLSBParser())
	r.Register(NewXLSParser(config))
	r.Register(NewCSVParser(config))
	r.Register(NewHTMLParser())
	r.Register(NewODSParser())
	r.Register(NewFlatODSParser())
	return r
}

// NewEmptyRegistry creates a registry with no adapters
func NewEmptyRegistry() *Registry {
	return &Registry{
		parsers: make(map[sheet.Format]ports.FormatParser),
		logger:  internal.NewDefaultLogger(),
	}
}

// Register adds or replaces the adapter for p.Format()
func (r *Registry) Register(p ports.FormatParser) {
	r.parsers[p.Format()] = p
}

// Formats lists the formats with a registered adapter, sorted by name
func (r *Registry) Formats() []sheet.Format {
	formats := make([]sheet.Format, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Parse implements ports.WorkbookParser. When the declared format fails to
// decode and the bytes sniff as a different format, that format is tried
// once (e.g. an HTML export saved with an .xls name).
func (r *Registry) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	if doc == nil || len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrParseFailed, core.ErrEmptySource)
	}

	format := DetectFormat(doc)
	wb, err := r.parseAs(ctx, format, doc)
	if err == nil {
		return wb, nil
	}
	// only a decoder failure is retried; formats without a decoder stay unsupported
	if _, ok := r.parsers[format]; !ok {
		return nil, err
	}

	sniffed := SniffFormat(doc.Data)
	if sniffed == format || sniffed == sheet.FormatUnknown {
		return nil, err
	}
	if _, ok := r.parsers[sniffed]; !ok {
		return nil, err
	}

	r.logger.Warn("[Registry] %s did not decode as %s (%v), retrying as %s", doc.Name, format, err, sniffed)
	wb, retryErr := r.parseAs(ctx, sniffed, doc)
	if retryErr != nil {
		return nil, err
	}
	return wb, nil
}

func (r *Registry) parseAs(ctx context.Context, format sheet.Format, doc *sheet.Document) (*sheet.Workbook, error) {
	p, ok := r.parsers[format]
	if !ok {
		if format == sheet.FormatUnknown || format == sheet.FormatOther {
			return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, doc.Name)
		}
		return nil, fmt.Errorf("%w: %q (%s)", core.ErrUnsupportedFormat, doc.Name, format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	wb, err := p.Parse(ctx, doc)
	if err != nil {
		r.logger.Debug("[Registry] %s adapter failed on %q: %v", format, doc.Name, err)
		return nil, err
	}
	wb.Format = format
	r.logger.Debug("[Registry] %q decoded as %s in %.2fms (%d sheets)",
		doc.Name, format, float64(time.Since(start).Nanoseconds())/1e6, len(wb.SheetNames))
	return wb, nil
}
