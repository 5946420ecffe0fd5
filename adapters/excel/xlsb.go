package excel

import (
	"bytes"
	"context"
	"fmt"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"github.com/TsubasaBE/go-xlsb/workbook"
	"github.com/TsubasaBE/go-xlsb/worksheet"
)

// XLSBParser decodes Excel binary workbooks (.xlsb)
type XLSBParser struct{}

// NewXLSBParser creates a go-xlsb-backed adapter
func NewXLSBParser() *XLSBParser {
	return &XLSBParser{}
}

func (p *XLSBParser) Format() sheet.Format { return sheet.FormatXLSB }

func (p *XLSBParser) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	book, err := workbook.OpenReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, core.NewParseError("xlsb", err)
	}
	defer book.Close()

	wb := sheet.NewWorkbook(sheet.FormatXLSB)
	for i, name := range book.Sheets() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws, err := book.Sheet(i + 1)
		if err != nil {
			return nil, core.NewParseError("xlsb", fmt.Errorf("sheet %q: %w", name, err))
		}
		grid, err := readXLSBSheet(ws)
		if err != nil {
			return nil, core.NewParseError("xlsb", fmt.Errorf("sheet %q: %w", name, err))
		}
		wb.AddSheet(wb.UniqueName(name), grid)
	}
	return wb, nil
}

func readXLSBSheet(ws *worksheet.Worksheet) (*sheet.Grid, error) {
	var rows []sheet.Row
	for cells := range ws.Rows(false) {
		row := make(sheet.Row, len(cells))
		for _, c := range cells {
			if c.C >= 0 && c.C < len(row) {
				row[c.C] = xlsbCell(ws, c)
			}
		}
		rows = append(rows, row)
	}
	if ws.Err != nil {
		return nil, ws.Err
	}

	grid := sheet.NewGrid(rows)
	if d := ws.Dimension; d != nil && d.W > 0 && d.H > 0 {
		declared := sheet.EncodeCell(d.C, d.R) + ":" + sheet.EncodeCell(d.C+d.W-1, d.R+d.H-1)
		grid.Ref = declaredOrDerived(declared, grid.Ref)
	}
	return grid, nil
}

func xlsbCell(ws *worksheet.Worksheet, c worksheet.Cell) sheet.Cell {
	switch v := c.V.(type) {
	case nil:
		return sheet.Empty()
	case string:
		return sheet.String(v)
	case float64:
		return sheet.NumberText(v, ws.FormatCell(c))
	case bool:
		return sheet.Bool(v)
	default:
		return sheet.String(fmt.Sprint(v))
	}
}
