package excel

import (
	"context"
	"testing"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"name", "qty", "ok"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"apple", 3, true}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"pear", 4.5, false}))

	_, err := f.NewSheet("Totals")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Totals", "D2", 42))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXParser(t *testing.T) {
	doc := &sheet.Document{Name: "book.xlsx", Data: buildXLSX(t)}

	wb, err := NewXLSXParser(DefaultParserConfig()).Parse(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Totals"}, wb.SheetNames)

	first := wb.SheetsByName["Sheet1"]
	assert.Equal(t, "A1:C3", first.UsedRange())
	rows, err := first.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, sheet.KindString, rows[0].At(0).Kind)
	assert.Equal(t, sheet.KindNumber, rows[1].At(1).Kind)
	assert.Equal(t, 3.0, rows[1].At(1).Num)
	assert.Equal(t, 4.5, rows[2].At(1).Num)
	assert.Equal(t, sheet.KindBool, rows[1].At(2).Kind)
	assert.True(t, rows[1].At(2).Bool)
	assert.False(t, rows[2].At(2).Bool)

	totals := wb.SheetsByName["Totals"]
	rng, err := sheet.DecodeRange(totals.UsedRange())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rng.End.Col, 3)
	assert.GreaterOrEqual(t, rng.End.Row, 1)
}

func TestXLSXParserGarbage(t *testing.T) {
	doc := &sheet.Document{Name: "book.xlsx", Data: []byte("definitely not a zip")}
	_, err := NewXLSXParser(DefaultParserConfig()).Parse(context.Background(), doc)
	assert.ErrorIs(t, err, core.ErrParseFailed)
}

func TestDeclaredOrDerived(t *testing.T) {
	assert.Equal(t, "A1:D10", declaredOrDerived("A1:D10", "A1:C3"))
	assert.Equal(t, "A1:C3", declaredOrDerived("A1", "A1:C3"))
	assert.Equal(t, "A1:C3", declaredOrDerived("garbage", "A1:C3"))
	assert.Equal(t, "B2:C3", declaredOrDerived("B2:C3", "A1"))
}

func TestLegacyBinaryGarbage(t *testing.T) {
	ctx := context.Background()
	doc := &sheet.Document{Name: "old.xls", Data: []byte("not an ole2 container at all")}
	_, err := NewXLSParser(DefaultParserConfig()).Parse(ctx, doc)
	assert.ErrorIs(t, err, core.ErrParseFailed)

	doc = &sheet.Document{Name: "bin.xlsb", Data: []byte("not a zip either")}
	_, err = NewXLSBParser().Parse(ctx, doc)
	assert.ErrorIs(t, err, core.ErrParseFailed)
}
