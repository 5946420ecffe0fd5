// Package sheet holds the ingestion pipeline's data model: documents as
// loaded from a source, workbooks as produced by a parser, and the
// normalized SheetCollection consumed by the presentation layer.
package sheet

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CellKind is the dynamic type of a cell value
type CellKind int

const (
	KindEmpty CellKind = iota
	KindString
	KindNumber
	KindBool
)

func (k CellKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "empty"
	}
}

// Cell is one cell value. Text is what a table renders; Num and Bool carry
// the typed value for number and boolean cells.
type Cell struct {
	Kind CellKind
	Text string
	Num  float64
	Bool bool
}

// Empty returns an absent cell value
func Empty() Cell {
	return Cell{}
}

// String returns a text cell
func String(s string) Cell {
	if s == "" {
		return Empty()
	}
	return Cell{Kind: KindString, Text: s}
}

// Number returns a numeric cell rendered with FormatNumber
func Number(f float64) Cell {
	return Cell{Kind: KindNumber, Num: f, Text: FormatNumber(f)}
}

// NumberText returns a numeric cell with a parser-supplied display string
// (number formats, dates).
func NumberText(f float64, text string) Cell {
	if text == "" {
		text = FormatNumber(f)
	}
	return Cell{Kind: KindNumber, Num: f, Text: text}
}

// Bool returns a boolean cell
func Bool(b bool) Cell {
	text := "FALSE"
	if b {
		text = "TRUE"
	}
	return Cell{Kind: KindBool, Bool: b, Text: text}
}

// InferCell types a raw text value the way delimited-text sources are read:
// blank is empty, TRUE/FALSE are booleans, anything ParseFloat accepts is a
// number, everything else is a string.
func InferCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty()
	}
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return Bool(true)
	case "FALSE":
		return Bool(false)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return NumberText(f, trimmed)
	}
	return String(raw)
}

// IsEmpty reports whether the cell holds no value
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// String implements fmt.Stringer with the display text
func (c Cell) String() string {
	return c.Text
}

// MarshalJSON encodes the cell as its natural JSON value
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindNumber:
		return json.Marshal(c.Num)
	case KindBool:
		return json.Marshal(c.Bool)
	case KindString:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

// FormatNumber renders a float without exponent for ordinary magnitudes
func FormatNumber(f float64) string {
	if math.Abs(f) >= 1e21 || (f != 0 && math.Abs(f) < 1e-7) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Row is an ordered sequence of cells, indexed by zero-based column key
type Row []Cell

// At returns the cell at key, or an empty cell when the row is shorter
func (r Row) At(key int) Cell {
	if key < 0 || key >= len(r) {
		return Empty()
	}
	return r[key]
}

// Texts returns the display text of the first n cells
func (r Row) Texts(n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(i).Text
	}
	return out
}

// ColumnDescriptor pairs a spreadsheet column label with its positional key
type ColumnDescriptor struct {
	Name string `json:"name"`
	Key  int    `json:"key"`
}

// Document is one loaded byte buffer plus the metadata used to pick a parser
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the document length in bytes
func (d *Document) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Data)
}

// SheetLike is a parsed sheet as exposed by the parsing boundary
type SheetLike interface {
	// UsedRange is the A1 reference of the sheet's used cells, e.g. "A1:D10".
	UsedRange() string
	// Rows returns the sheet's rows positionally, column A at index 0.
	Rows() ([]Row, error)
}

// Workbook is the parsing boundary's output
type Workbook struct {
	SheetNames   []string
	SheetsByName map[string]SheetLike
	Format       Format
}

// NewWorkbook creates an empty workbook for the given format
func NewWorkbook(format Format) *Workbook {
	return &Workbook{
		SheetsByName: make(map[string]SheetLike),
		Format:       format,
	}
}

// AddSheet appends a sheet in workbook order
func (wb *Workbook) AddSheet(name string, s SheetLike) {
	wb.SheetNames = append(wb.SheetNames, name)
	wb.SheetsByName[name] = s
}

// UniqueName returns base, or base with a " (n)" suffix when a sheet of
// that name already exists. Blank names become "Sheet<position>".
func (wb *Workbook) UniqueName(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "Sheet" + strconv.Itoa(len(wb.SheetNames)+1)
	}
	name := base
	for n := 2; ; n++ {
		if _, exists := wb.SheetsByName[name]; !exists {
			return name
		}
		name = base + " (" + strconv.Itoa(n) + ")"
	}
}

// Grid is an in-memory SheetLike used by most parser adapters
type Grid struct {
	Ref  string
	Data []Row
}

// NewGrid builds a Grid whose used range is derived from its rows
func NewGrid(rows []Row) *Grid {
	trimmed := trimTrailingEmptyRows(rows)
	return &Grid{Ref: UsedRangeOf(trimmed), Data: trimmed}
}

func (g *Grid) UsedRange() string    { return g.Ref }
func (g *Grid) Rows() ([]Row, error) { return g.Data, nil }

// UsedRangeOf computes "A1:<lastCol><lastRow>" over rows, ignoring trailing
// empty cells. A sheet with no values reports "A1".
func UsedRangeOf(rows []Row) string {
	maxCol := -1
	lastRow := -1
	for r, row := range rows {
		for c := len(row) - 1; c >= 0; c-- {
			if !row[c].IsEmpty() {
				if c > maxCol {
					maxCol = c
				}
				lastRow = r
				break
			}
		}
	}
	if maxCol < 0 {
		return "A1"
	}
	return "A1:" + EncodeCell(maxCol, lastRow)
}

func trimTrailingEmptyRows(rows []Row) []Row {
	end := len(rows)
	for end > 0 && rowIsEmpty(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func rowIsEmpty(row Row) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// SheetCollection is the normalized view of one workbook. The three slices
// are parallel: index i in each refers to the same sheet.
type SheetCollection struct {
	SheetNames []string             `json:"sheet_names"`
	Data       [][]Row              `json:"data"`
	Columns    [][]ColumnDescriptor `json:"columns"`
}

// Len returns the number of sheets
func (c *SheetCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.SheetNames)
}

// IsEmpty reports whether the collection holds no sheets
func (c *SheetCollection) IsEmpty() bool {
	return c.Len() == 0
}

// Sheet returns the name, rows and columns at index i
func (c *SheetCollection) Sheet(i int) (string, []Row, []ColumnDescriptor, bool) {
	if c == nil || i < 0 || i >= len(c.SheetNames) {
		return "", nil, nil, false
	}
	return c.SheetNames[i], c.Data[i], c.Columns[i], true
}

// IndexOf returns the position of the named sheet, or -1
func (c *SheetCollection) IndexOf(name string) int {
	if c == nil {
		return -1
	}
	for i, n := range c.SheetNames {
		if n == name {
			return i
		}
	}
	return -1
}
