package excel

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"github.com/xuri/excelize/v2"
)

// XLSXParser decodes Office Open XML workbooks (xlsx, xlsm, xltx, xltm)
type XLSXParser struct {
	config ParserConfig
}

// NewXLSXParser creates an excelize-backed adapter
func NewXLSXParser(config ParserConfig) *XLSXParser {
	return &XLSXParser{config: config}
}

func (p *XLSXParser) Format() sheet.Format { return sheet.FormatXLSX }

// Parse reads every worksheet eagerly so the excelize file can be closed
// before the workbook is handed on.
func (p *XLSXParser) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	opts := excelize.Options{}
	if p.config.MaxUnzipSize > 0 {
		opts.UnzipSizeLimit = p.config.MaxUnzipSize
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Data), opts)
	if err != nil {
		return nil, core.NewParseError("xlsx", err)
	}
	defer f.Close()

	wb := sheet.NewWorkbook(sheet.FormatXLSX)
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		grid, err := p.readSheet(f, name)
		if err != nil {
			return nil, core.NewParseError("xlsx", fmt.Errorf("sheet %q: %w", name, err))
		}
		wb.AddSheet(name, grid)
	}
	return wb, nil
}

// readSheet pairs formatted values (what Excel displays) with raw values
// (what the cell stores) to type each cell.
func (p *XLSXParser) readSheet(f *excelize.File, name string) (*sheet.Grid, error) {
	formatted, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([]sheet.Row, len(formatted))
	for r, cols := range formatted {
		row := make(sheet.Row, len(cols))
		for c, text := range cols {
			rawValue := text
			if r < len(raw) && c < len(raw[r]) {
				rawValue = raw[r][c]
			}
			if text == "" && rawValue == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(name, cellName)
			if err != nil {
				cellType = excelize.CellTypeUnset
			}
			row[c] = xlsxCell(cellType, rawValue, text)
		}
		rows[r] = row
	}

	grid := sheet.NewGrid(rows)
	dimension, err := f.GetSheetDimension(name)
	if err != nil || dimension == "" {
		return grid, nil
	}
	return &sheet.Grid{Ref: declaredOrDerived(dimension, grid.Ref), Data: grid.Data}, nil
}

// declaredOrDerived keeps a workbook's declared dimension unless it fails to
// decode or is narrower than the cells actually present. Writers that never
// update the <dimension> element leave it at "A1".
func declaredOrDerived(declared, derived string) string {
	d, err := sheet.DecodeRange(declared)
	if err != nil {
		return derived
	}
	have, err := sheet.DecodeRange(derived)
	if err != nil {
		return declared
	}
	if d.End.Col < have.End.Col || d.End.Row < have.End.Row {
		return derived
	}
	return declared
}

func xlsxCell(cellType excelize.CellType, raw, text string) sheet.Cell {
	switch cellType {
	case excelize.CellTypeBool:
		return sheet.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return sheet.String(text)
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return sheet.NumberText(f, text)
		}
	}
	if text == "" {
		return sheet.String(raw)
	}
	return sheet.String(text)
}
