package excel

import (
	"context"
	"testing"

	"sheetview/domain/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser(t *testing.T) {
	data := []byte("\xEF\xBB\xBFname,qty,ok\napple,3,TRUE\n\"pear, green\",4.5,false\n")
	wb, err := NewCSVParser(DefaultParserConfig()).Parse(context.Background(), &sheet.Document{Name: "f.csv", Data: data})
	require.NoError(t, err)

	require.Equal(t, []string{"Sheet1"}, wb.SheetNames)
	s := wb.SheetsByName["Sheet1"]
	assert.Equal(t, "A1:C3", s.UsedRange())
	rows, _ := s.Rows()
	assert.Equal(t, "name", rows[0].At(0).Text)
	assert.Equal(t, "pear, green", rows[2].At(0).Text)
	assert.Equal(t, sheet.KindNumber, rows[1].At(1).Kind)
	assert.Equal(t, sheet.KindBool, rows[2].At(2).Kind)
}

func TestCSVParserRaggedRows(t *testing.T) {
	data := []byte("a\nb,c,d\ne,f\n")
	wb, err := NewCSVParser(DefaultParserConfig()).Parse(context.Background(), &sheet.Document{Data: data})
	require.NoError(t, err)
	assert.Equal(t, "A1:C3", wb.SheetsByName["Sheet1"].UsedRange())
}

func TestCSVParserFallbackCharset(t *testing.T) {
	// "café" in windows-1252
	data := []byte("caf\xe9;1\n")
	wb, err := NewCSVParser(DefaultParserConfig()).Parse(context.Background(), &sheet.Document{Data: data})
	require.NoError(t, err)
	rows, _ := wb.SheetsByName["Sheet1"].Rows()
	assert.Equal(t, "café", rows[0].At(0).Text)
	assert.Equal(t, 1.0, rows[0].At(1).Num)
}

func TestSniffDelimiter(t *testing.T) {
	tests := map[string]rune{
		"a,b,c\n1,2,3\n":          ',',
		"a;b;c\n1;2;3\n":          ';',
		"a\tb\tc\n1\t2\t3\n":      '\t',
		"a|b\n1|2\n":              '|',
		"\"x;y\",b\n\"1;2\",3\n": ',',
		"single\n":                ',',
	}
	for text, expected := range tests {
		assert.Equal(t, expected, SniffDelimiter([]byte(text)), text)
	}
}
