package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidate delimiters, in tie-break order
var csvDelimiters = []rune{',', ';', '\t', '|'}

// CSVParser decodes delimited text into a single sheet
type CSVParser struct {
	fallbackCharset string
}

// NewCSVParser creates a delimited-text adapter
func NewCSVParser(config ParserConfig) *CSVParser {
	charset := config.CSVFallbackCharset
	if charset == "" {
		charset = DefaultParserConfig().CSVFallbackCharset
	}
	return &CSVParser{fallbackCharset: charset}
}

func (p *CSVParser) Format() sheet.Format { return sheet.FormatCSV }

func (p *CSVParser) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	text, err := p.decode(doc.Data)
	if err != nil {
		return nil, core.NewParseError("csv", err)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = SniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []sheet.Row
	for {
		if len(rows)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.NewParseError("csv", err)
		}
		row := make(sheet.Row, len(record))
		for i, field := range record {
			row[i] = sheet.InferCell(field)
		}
		rows = append(rows, row)
	}

	wb := sheet.NewWorkbook(sheet.FormatCSV)
	wb.AddSheet("Sheet1", sheet.NewGrid(rows))
	return wb, nil
}

// decode strips a UTF-8 byte order mark and converts non-UTF-8 input from
// the fallback charset
func (p *CSVParser) decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	enc, err := htmlindex.Get(p.fallbackCharset)
	if err != nil {
		return nil, fmt.Errorf("unknown fallback charset %q: %w", p.fallbackCharset, err)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.fallbackCharset, err)
	}
	return out, nil
}

// SniffDelimiter picks the delimiter that splits the first lines into the
// most consistent number of fields. Quoted sections are skipped.
func SniffDelimiter(text []byte) rune {
	lines := sampleLines(text, 10)
	best, bestScore := ',', 0
	for _, d := range csvDelimiters {
		score := delimiterScore(lines, d)
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

func sampleLines(text []byte, n int) [][]byte {
	var lines [][]byte
	for len(text) > 0 && len(lines) < n {
		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		line := bytes.TrimSuffix(text[:i], []byte("\r"))
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, line)
		}
		text = text[i+1:]
	}
	return lines
}

// delimiterScore counts lines sharing the first line's non-zero field count
func delimiterScore(lines [][]byte, d rune) int {
	if len(lines) == 0 {
		return 0
	}
	first := countUnquoted(lines[0], d)
	if first == 0 {
		return 0
	}
	score := 0
	for _, line := range lines {
		if countUnquoted(line, d) == first {
			score++
		}
	}
	return score*1000 + first
}

func countUnquoted(line []byte, d rune) int {
	count := 0
	quoted := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			count++
		}
	}
	return count
}
