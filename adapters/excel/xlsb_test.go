package excel

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"sheetview/domain/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// biff12Writer emits BIFF12 records: a 1-2 byte id followed by a 7-bit
// varint length
type biff12Writer struct {
	bytes.Buffer
}

func (w *biff12Writer) record(id int, payload ...[]byte) {
	if id < 0x80 {
		w.WriteByte(byte(id))
	} else {
		w.WriteByte(byte(id & 0xFF))
		w.WriteByte(byte(id >> 8))
	}
	n := 0
	for _, p := range payload {
		n += len(p)
	}
	for {
		b := n & 0x7F
		n >>= 7
		if n == 0 {
			w.WriteByte(byte(b))
			break
		}
		w.WriteByte(byte(b) | 0x80)
	}
	for _, p := range payload {
		w.Write(p)
	}
}

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func xlsbString(s string) []byte {
	units := []rune(s)
	out := le32(uint32(len(units)))
	for _, r := range units {
		out = binary.LittleEndian.AppendUint16(out, uint16(r))
	}
	return out
}

// xlsbCellRecord is col, style, then the value payload
func xlsbCellRecord(w *biff12Writer, id int, col uint32, value []byte) {
	w.record(id, le32(col), le32(0), value)
}

type xlsbSheetFixture struct {
	name      string
	dimension [4]uint32 // r1, r2, c1, c2 (inclusive)
	write     func(w *biff12Writer)
}

// buildXLSB assembles a workbook with the given sheets and shared strings
func buildXLSB(t *testing.T, strs []string, sheets []xlsbSheetFixture) []byte {
	t.Helper()

	var wb biff12Writer
	wb.record(0x0183)
	wb.record(0x018F)
	rels := `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`
	for i, s := range sheets {
		rid := "rId" + string(rune('1'+i))
		wb.record(0x019C, le32(0), le32(uint32(i+1)), xlsbString(rid), xlsbString(s.name))
		rels += `<Relationship Id="` + rid + `" Type="worksheet" Target="worksheets/sheet` + string(rune('1'+i)) + `.bin"/>`
	}
	rels += `</Relationships>`
	wb.record(0x0190)
	wb.record(0x0184)

	var sst biff12Writer
	sst.record(0x019F, le32(uint32(len(strs))), le32(uint32(len(strs))))
	for _, s := range strs {
		sst.record(0x0013, []byte{0}, xlsbString(s))
	}
	sst.record(0x01A0)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name string, data []byte) {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	add("xl/_rels/workbook.bin.rels", []byte(rels))
	add("xl/workbook.bin", wb.Bytes())
	add("xl/sharedStrings.bin", sst.Bytes())

	for i, s := range sheets {
		var ws biff12Writer
		ws.record(0x0181)
		d := s.dimension
		ws.record(0x0194, le32(d[0]), le32(d[1]), le32(d[2]), le32(d[3]))
		ws.record(0x0191)
		s.write(&ws)
		ws.record(0x0192)
		ws.record(0x0182)
		add("xl/worksheets/sheet"+string(rune('1'+i))+".bin", ws.Bytes())
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func float64Bytes(f float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(f))
}

func stockXLSB(t *testing.T) []byte {
	return buildXLSB(t, []string{"item", "qty", "bolt"}, []xlsbSheetFixture{
		{
			// B2:C3, leaving row 1 and column A empty
			name:      "Stock",
			dimension: [4]uint32{1, 2, 1, 2},
			write: func(w *biff12Writer) {
				w.record(0x0000, le32(1))
				xlsbCellRecord(w, 0x07, 1, le32(0))
				xlsbCellRecord(w, 0x07, 2, le32(1))
				w.record(0x0000, le32(2))
				xlsbCellRecord(w, 0x07, 1, le32(2))
				xlsbCellRecord(w, 0x05, 2, float64Bytes(12.5))
			},
		},
		{
			name:      "Flags",
			dimension: [4]uint32{0, 0, 0, 1},
			write: func(w *biff12Writer) {
				w.record(0x0000, le32(0))
				xlsbCellRecord(w, 0x04, 0, []byte{1})
				xlsbCellRecord(w, 0x01, 1, nil)
			},
		},
	})
}

func TestXLSBParser(t *testing.T) {
	wb, err := NewXLSBParser().Parse(context.Background(), &sheet.Document{Name: "stock.xlsb", Data: stockXLSB(t)})
	require.NoError(t, err)
	assert.Equal(t, sheet.FormatXLSB, wb.Format)
	require.Equal(t, []string{"Stock", "Flags"}, wb.SheetNames)

	stock := wb.SheetsByName["Stock"]
	assert.Equal(t, "B2:C3", stock.UsedRange())
	rows, err := stock.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].At(1).IsEmpty())
	assert.True(t, rows[1].At(0).IsEmpty())
	assert.Equal(t, "item", rows[1].At(1).Text)
	assert.Equal(t, "qty", rows[1].At(2).Text)
	assert.Equal(t, "bolt", rows[2].At(1).Text)
	assert.Equal(t, sheet.KindNumber, rows[2].At(2).Kind)
	assert.Equal(t, 12.5, rows[2].At(2).Num)

	flags := wb.SheetsByName["Flags"]
	assert.Equal(t, "A1:B1", flags.UsedRange())
	rows, err = flags.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].At(0).Bool)
	assert.True(t, rows[0].At(1).IsEmpty())
}

func TestXLSBParserThroughRegistry(t *testing.T) {
	wb, err := NewRegistry(DefaultParserConfig()).Parse(context.Background(), &sheet.Document{Name: "stock.xlsb", Data: stockXLSB(t)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock", "Flags"}, wb.SheetNames)
}

func TestXLSBParserCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewXLSBParser().Parse(ctx, &sheet.Document{Name: "stock.xlsb", Data: stockXLSB(t)})
	assert.ErrorIs(t, err, context.Canceled)
}
