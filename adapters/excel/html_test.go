package excel

import (
	"context"
	"testing"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoTables = `<html><body>
<table><caption>Prices</caption>
<tr><th>item</th><th>price</th></tr>
<tr><td>tea</td><td> 2.50 </td></tr>
</table>
<p>between</p>
<table>
<tr><td colspan="2">wide</td><td rowspan="2">tall</td></tr>
<tr><td>x</td><td>y</td></tr>
</table>
</body></html>`

func TestHTMLParser(t *testing.T) {
	wb, err := NewHTMLParser().Parse(context.Background(), &sheet.Document{Name: "p.html", Data: []byte(twoTables)})
	require.NoError(t, err)
	require.Equal(t, []string{"Prices", "Sheet2"}, wb.SheetNames)

	prices := wb.SheetsByName["Prices"]
	assert.Equal(t, "A1:B2", prices.UsedRange())
	rows, _ := prices.Rows()
	assert.Equal(t, 2.5, rows[1].At(1).Num)

	spans := wb.SheetsByName["Sheet2"]
	assert.Equal(t, "A1:C2", spans.UsedRange())
	rows, _ = spans.Rows()
	assert.Equal(t, "wide", rows[0].At(0).Text)
	assert.True(t, rows[0].At(1).IsEmpty())
	assert.Equal(t, "tall", rows[0].At(2).Text)
	assert.Equal(t, []string{"x", "y", ""}, rows[1].Texts(3))
}

func TestHTMLParserNoTables(t *testing.T) {
	_, err := NewHTMLParser().Parse(context.Background(), &sheet.Document{Data: []byte("<p>nothing</p>")})
	assert.ErrorIs(t, err, core.ErrParseFailed)
	assert.ErrorIs(t, err, core.ErrEmptySource)
}

func TestCellTextCollapsesWhitespace(t *testing.T) {
	wb, err := NewHTMLParser().Parse(context.Background(), &sheet.Document{
		Data: []byte("<table><tr><td>  a \n\t b<br>c </td></tr></table>"),
	})
	require.NoError(t, err)
	rows, _ := wb.SheetsByName["Sheet1"].Rows()
	assert.Equal(t, "a b c", rows[0].At(0).Text)
}
