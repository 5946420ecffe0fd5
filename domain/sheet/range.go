package sheet

import (
	"strconv"
	"strings"

	"sheetview/domain/core"
)

// maxColumnLetters bounds column labels so decoding cannot overflow int
const maxColumnLetters = 7

// CellRef is a zero-based cell coordinate
type CellRef struct {
	Col int
	Row int
}

// Range is a decoded A1 range reference with zero-based corners
type Range struct {
	Start CellRef
	End   CellRef
}

// Columns returns the column count measured from column A
func (r Range) Columns() int {
	return r.End.Col + 1
}

// Rows returns the row count measured from row 1
func (r Range) Rows() int {
	return r.End.Row + 1
}

// String encodes the range back to A1 notation
func (r Range) String() string {
	start := EncodeCell(r.Start.Col, r.Start.Row)
	end := EncodeCell(r.End.Col, r.End.Row)
	if start == end {
		return start
	}
	return start + ":" + end
}

// DecodeRange parses "<col><row>:<col><row>" (or a single cell reference).
// Letters are case-insensitive and "$" absolute markers are ignored.
func DecodeRange(ref string) (Range, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return Range{}, core.NewMalformedRangeError(ref, "range reference is empty")
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) > 2 {
		return Range{}, core.NewMalformedRangeError(ref, "too many ':' separators")
	}

	start, err := decodeCell(ref, parts[0])
	if err != nil {
		return Range{}, err
	}
	end := start
	if len(parts) == 2 {
		if end, err = decodeCell(ref, parts[1]); err != nil {
			return Range{}, err
		}
	}
	return Range{Start: start, End: end}, nil
}

// ColumnCount decodes ref and returns the end column index plus one
func ColumnCount(ref string) (int, error) {
	r, err := DecodeRange(ref)
	if err != nil {
		return 0, err
	}
	return r.Columns(), nil
}

// EncodeColumn converts a zero-based column index to its letter label
// (A=0, Z=25, AA=26, ZZ=701). Negative indices yield "".
func EncodeColumn(index int) string {
	if index < 0 {
		return ""
	}
	var buf [16]byte
	i := len(buf)
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		i--
		buf[i] = byte('A' + (n-1)%26)
	}
	return string(buf[i:])
}

// DecodeColumn converts a letter label to its zero-based column index
func DecodeColumn(label string) (int, error) {
	if label == "" {
		return 0, core.NewMalformedRangeError(label, "column label is empty")
	}
	if len(label) > maxColumnLetters {
		return 0, core.NewMalformedRangeError(label, "column label too long")
	}
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch < 'A' || ch > 'Z' {
			return 0, core.NewMalformedRangeError(label, "column label must be letters")
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, nil
}

// EncodeCell converts zero-based coordinates to an A1 cell reference
func EncodeCell(col, row int) string {
	return EncodeColumn(col) + strconv.Itoa(row+1)
}

func decodeCell(ref, token string) (CellRef, error) {
	token = strings.ReplaceAll(strings.TrimSpace(token), "$", "")
	if token == "" {
		return CellRef{}, core.NewMalformedRangeError(ref, "missing cell reference")
	}

	split := 0
	for split < len(token) && isLetter(token[split]) {
		split++
	}
	letters, digits := token[:split], token[split:]
	if letters == "" {
		return CellRef{}, core.NewMalformedRangeError(ref, "cell "+token+" has no column letters")
	}
	if digits == "" {
		return CellRef{}, core.NewMalformedRangeError(ref, "cell "+token+" has no row number")
	}

	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return CellRef{}, core.NewMalformedRangeError(ref, "cell "+token+" has an invalid row")
		}
	}

	col, err := DecodeColumn(letters)
	if err != nil {
		return CellRef{}, core.NewMalformedRangeError(ref, "cell "+token+" has an invalid column")
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return CellRef{}, core.NewMalformedRangeError(ref, "cell "+token+" has an invalid row")
	}
	return CellRef{Col: col, Row: row - 1}, nil
}

func isLetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}
