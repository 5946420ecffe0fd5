package excel

import (
	"bytes"
	"context"
	"encoding/xml"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"github.com/knieriem/odf/ods"
)

// ODSParser decodes zipped OpenDocument spreadsheets (.ods)
type ODSParser struct{}

// NewODSParser creates a knieriem/odf-backed adapter
func NewODSParser() *ODSParser {
	return &ODSParser{}
}

func (p *ODSParser) Format() sheet.Format { return sheet.FormatODS }

func (p *ODSParser) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	f, err := ods.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, core.NewParseError("ods", err)
	}

	var content ods.Doc
	if err := f.ParseContent(&content); err != nil {
		return nil, core.NewParseError("ods", err)
	}
	return odsWorkbook(ctx, sheet.FormatODS, content.Table)
}

// FlatODSParser decodes single-file OpenDocument XML spreadsheets (.fods)
type FlatODSParser struct{}

// NewFlatODSParser creates a flat OpenDocument adapter
func NewFlatODSParser() *FlatODSParser {
	return &FlatODSParser{}
}

func (p *FlatODSParser) Format() sheet.Format { return sheet.FormatFODS }

// flatDocument is office:document, which carries the same body as the
// content.xml of a zipped file
type flatDocument struct {
	Table []ods.Table `xml:"body>spreadsheet>table"`
}

func (p *FlatODSParser) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	var content flatDocument
	if err := xml.Unmarshal(doc.Data, &content); err != nil {
		return nil, core.NewParseError("fods", err)
	}
	return odsWorkbook(ctx, sheet.FormatFODS, content.Table)
}

// odsWorkbook types each table's text cells the way delimited text is read.
// Repeated rows and columns are expanded by the library, which also drops
// trailing empty rows and cells.
func odsWorkbook(ctx context.Context, format sheet.Format, tables []ods.Table) (*sheet.Workbook, error) {
	wb := sheet.NewWorkbook(format)
	for i := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table := &tables[i]

		texts := table.Strings()
		rows := make([]sheet.Row, len(texts))
		for r, cells := range texts {
			row := make(sheet.Row, len(cells))
			for c, text := range cells {
				row[c] = sheet.InferCell(text)
			}
			rows[r] = row
		}
		wb.AddSheet(wb.UniqueName(table.Name), sheet.NewGrid(rows))
	}
	return wb, nil
}
