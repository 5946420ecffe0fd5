package excel

import (
	"bytes"
	"context"
	"fmt"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"github.com/extrame/xls"
)

// XLSParser decodes legacy BIFF workbooks (Excel 97-2003 .xls)
type XLSParser struct {
	charset string
}

// NewXLSParser creates an extrame/xls-backed adapter
func NewXLSParser(config ParserConfig) *XLSParser {
	charset := config.XLSCharset
	if charset == "" {
		charset = DefaultParserConfig().XLSCharset
	}
	return &XLSParser{charset: charset}
}

func (p *XLSParser) Format() sheet.Format { return sheet.FormatXLS }

// Parse recovers from decoder panics, which extrame/xls raises on some
// truncated or corrupt streams.
func (p *XLSParser) Parse(ctx context.Context, doc *sheet.Document) (wb *sheet.Workbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb = nil
			err = core.NewParseError("xls", fmt.Errorf("decoder panic: %v", r))
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(doc.Data), p.charset)
	if err != nil {
		return nil, core.NewParseError("xls", err)
	}

	wb = sheet.NewWorkbook(sheet.FormatXLS)
	for i := 0; i < book.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}

		rows := make([]sheet.Row, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			xlsRow := ws.Row(r)
			if xlsRow == nil {
				rows = append(rows, sheet.Row{})
				continue
			}
			row := make(sheet.Row, xlsRow.LastCol())
			for c := xlsRow.FirstCol(); c < xlsRow.LastCol(); c++ {
				row[c] = sheet.InferCell(xlsRow.Col(c))
			}
			rows = append(rows, row)
		}

		wb.AddSheet(wb.UniqueName(ws.Name), sheet.NewGrid(rows))
	}
	return wb, nil
}
