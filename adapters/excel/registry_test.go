package excel

import (
	"context"
	"errors"
	"testing"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockParser struct {
	mock.Mock
	format sheet.Format
}

func (m *mockParser) Format() sheet.Format { return m.format }

func (m *mockParser) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	args := m.Called(ctx, doc)
	wb, _ := args.Get(0).(*sheet.Workbook)
	return wb, args.Error(1)
}

func TestRegistryEmptyDocument(t *testing.T) {
	r := NewRegistry(DefaultParserConfig())
	_, err := r.Parse(context.Background(), &sheet.Document{Name: "a.xlsx"})
	assert.ErrorIs(t, err, core.ErrParseFailed)
	assert.ErrorIs(t, err, core.ErrEmptySource)

	_, err = r.Parse(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrEmptySource)
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	r := NewRegistry(DefaultParserConfig())
	wb, err := r.Parse(context.Background(), &sheet.Document{Name: "d.csv", Data: []byte("a,b\n1,2\n")})
	require.NoError(t, err)
	assert.Equal(t, sheet.FormatCSV, wb.Format)

	wb, err = r.Parse(context.Background(), &sheet.Document{Name: "b.xlsx", Data: buildXLSX(t)})
	require.NoError(t, err)
	assert.Equal(t, sheet.FormatXLSX, wb.Format)
}

func TestRegistryUnsupported(t *testing.T) {
	r := NewRegistry(DefaultParserConfig())
	_, err := r.Parse(context.Background(), &sheet.Document{Name: "q.wq1", Data: []byte{0x00, 0x00, 0x02, 0x00}})
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestRegistryTextFormatsWithoutDecoder(t *testing.T) {
	r := NewRegistry(DefaultParserConfig())
	docs := []*sheet.Document{
		{Name: "data.sylk", Data: []byte("ID;PWXL;N;E\nC;Y1;X1;K\"hello\"\nC;Y1;X2;K42\nE\n")},
		{Name: "data.dif", Data: []byte("TABLE\n0,1\n\"\"\nVECTORS\n0,2\n\"\"\nTUPLES\n0,1\n\"\"\nDATA\n0,0\n\"\"\n-1,0\nBOT\n1,0\n\"hello\"\n0,42\nV\n-1,0\nEOD\n")},
	}
	for _, doc := range docs {
		wb, err := r.Parse(context.Background(), doc)
		assert.Nil(t, wb, doc.Name)
		assert.ErrorIs(t, err, core.ErrUnsupportedFormat, doc.Name)
	}
}

func TestRegistryRetriesSniffedFormat(t *testing.T) {
	r := NewRegistry(DefaultParserConfig())
	// HTML export saved with a legacy Excel extension
	doc := &sheet.Document{Name: "report.xls", Data: []byte("<html><body><table><tr><td>1</td></tr></table></body></html>")}

	wb, err := r.Parse(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, sheet.FormatHTML, wb.Format)
}

func TestRegistryRetryFailureReturnsOriginalError(t *testing.T) {
	original := errors.New("declared format failed")
	declared := &mockParser{format: sheet.FormatXLSX}
	declared.On("Parse", mock.Anything, mock.Anything).Return(nil, original)
	sniffed := &mockParser{format: sheet.FormatCSV}
	sniffed.On("Parse", mock.Anything, mock.Anything).Return(nil, errors.New("also failed"))

	r := NewEmptyRegistry()
	r.Register(declared)
	r.Register(sniffed)

	_, err := r.Parse(context.Background(), &sheet.Document{Name: "x.xlsx", Data: []byte("plain text, really\n")})
	assert.ErrorIs(t, err, original)
	declared.AssertExpectations(t)
	sniffed.AssertExpectations(t)
}

func TestRegistryFormats(t *testing.T) {
	formats := NewRegistry(DefaultParserConfig()).Formats()
	assert.Equal(t, []sheet.Format{
		sheet.FormatCSV, sheet.FormatFODS, sheet.FormatHTML, sheet.FormatODS,
		sheet.FormatXLS, sheet.FormatXLSB, sheet.FormatXLSX,
	}, formats)
}
