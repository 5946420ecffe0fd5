package sheet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sheetview/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSheet struct{ err error }

func (f failingSheet) UsedRange() string    { return "A1:B2" }
func (f failingSheet) Rows() ([]Row, error) { return nil, f.err }

func textRows(rows ...[]string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		row := make(Row, len(r))
		for j, v := range r {
			row[j] = InferCell(v)
		}
		out[i] = row
	}
	return out
}

func TestNormalizeTwoSheets(t *testing.T) {
	wb := NewWorkbook(FormatXLSX)
	wb.AddSheet("Sheet1", &Grid{Ref: "A1:B2", Data: textRows([]string{"a", "b"}, []string{"1", "2"})})
	wb.AddSheet("Sheet2", &Grid{Ref: "A1:D1", Data: textRows([]string{"w", "x", "y", "z"})})

	coll, err := Normalize(context.Background(), wb)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sheet1", "Sheet2"}, coll.SheetNames)
	assert.Len(t, coll.Data, 2)
	assert.Len(t, coll.Columns, 2)
	assert.Len(t, coll.Columns[0], 2)
	assert.Len(t, coll.Columns[1], 4)
	assert.Len(t, coll.Data[1], 1)
}

func TestNormalizeSingleSheetA1C3(t *testing.T) {
	wb := NewWorkbook(FormatCSV)
	wb.AddSheet("Data", &Grid{Ref: "A1:C3", Data: textRows(
		[]string{"name", "qty", "ok"},
		[]string{"apple", "3", "TRUE"},
		[]string{"pear", "4.5", "FALSE"},
	)})

	coll, err := Normalize(context.Background(), wb)
	require.NoError(t, err)

	_, rows, cols, ok := coll.Sheet(0)
	require.True(t, ok)
	require.Len(t, cols, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{cols[0].Name, cols[1].Name, cols[2].Name})
	require.Len(t, rows, 3)

	// Row 0 is data, not a header.
	assert.Equal(t, "name", rows[0].At(0).Text)
	for _, row := range rows {
		for _, c := range cols {
			assert.NotPanics(t, func() { _ = row.At(c.Key) })
		}
	}
	assert.Equal(t, KindNumber, rows[2].At(1).Kind)
	assert.Equal(t, 4.5, rows[2].At(1).Num)
	assert.Equal(t, KindBool, rows[1].At(2).Kind)
}

func TestNormalizePreservesWorkbookOrder(t *testing.T) {
	wb := NewWorkbook(FormatXLSX)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("S%02d", i)
		wb.AddSheet(name, &Grid{Ref: "A1:" + EncodeColumn(i) + "1"})
	}

	coll, err := Normalize(context.Background(), wb)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Equal(t, fmt.Sprintf("S%02d", i), coll.SheetNames[i])
		assert.Len(t, coll.Columns[i], i+1)
		assert.NotNil(t, coll.Data[i])
	}
}

func TestNormalizeMalformedRangeIsAllOrNothing(t *testing.T) {
	wb := NewWorkbook(FormatXLSX)
	wb.AddSheet("Good", &Grid{Ref: "A1:B2"})
	wb.AddSheet("Bad", &Grid{Ref: ""})

	coll, err := Normalize(context.Background(), wb)
	assert.Nil(t, coll)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedRange)
	assert.Contains(t, err.Error(), `"Bad"`)
}

func TestNormalizeRowFailure(t *testing.T) {
	boom := errors.New("corrupt stream")
	wb := NewWorkbook(FormatXLSB)
	wb.AddSheet("Broken", failingSheet{err: boom})

	_, err := Normalize(context.Background(), wb)
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeMissingSheet(t *testing.T) {
	wb := NewWorkbook(FormatXLSX)
	wb.SheetNames = append(wb.SheetNames, "Ghost")

	_, err := Normalize(context.Background(), wb)
	assert.ErrorIs(t, err, core.ErrSheetNotFound)
}

func TestNormalizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wb := NewWorkbook(FormatXLSX)
	wb.AddSheet("Sheet1", &Grid{Ref: "A1"})

	_, err := Normalize(ctx, wb)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeNilWorkbook(t *testing.T) {
	_, err := Normalize(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrParseFailed)
}
