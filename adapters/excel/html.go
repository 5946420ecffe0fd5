package excel

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"sheetview/domain/core"
	"sheetview/domain/sheet"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxSpan bounds colspan/rowspan so a hostile page cannot blow up the grid
const maxSpan = 1000

// HTMLParser reads every <table> of an HTML page as one sheet
type HTMLParser struct{}

// NewHTMLParser creates an x/net/html-backed adapter
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

func (p *HTMLParser) Format() sheet.Format { return sheet.FormatHTML }

func (p *HTMLParser) Parse(ctx context.Context, doc *sheet.Document) (*sheet.Workbook, error) {
	root, err := html.Parse(bytes.NewReader(doc.Data))
	if err != nil {
		return nil, core.NewParseError("html", err)
	}

	tables := findTables(root)
	if len(tables) == 0 {
		return nil, core.NewParseError("html", fmt.Errorf("no <table> element: %w", core.ErrEmptySource))
	}

	wb := sheet.NewWorkbook(sheet.FormatHTML)
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		caption, rows := readTable(table)
		wb.AddSheet(wb.UniqueName(caption), sheet.NewGrid(rows))
	}
	return wb, nil
}

// findTables returns outermost tables in document order; nested tables are
// read as cell text of their parent.
func findTables(n *html.Node) []*html.Node {
	var tables []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return tables
}

type spanned struct {
	col       int
	remaining int
}

func readTable(table *html.Node) (string, []sheet.Row) {
	var caption string
	var trs []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Caption:
				if caption == "" {
					caption = cellText(c)
				}
			case atom.Thead, atom.Tbody, atom.Tfoot:
				collect(c)
			case atom.Tr:
				trs = append(trs, c)
			}
		}
	}
	collect(table)

	// columns occupied by rowspans from earlier rows, keyed by row index
	occupied := make(map[int]map[int]bool)
	rows := make([]sheet.Row, 0, len(trs))
	for r, tr := range trs {
		var row sheet.Row
		col := 0
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if td.Type != html.ElementNode || (td.DataAtom != atom.Td && td.DataAtom != atom.Th) {
				continue
			}
			for occupied[r][col] {
				col++
			}
			colspan := spanAttr(td, "colspan")
			rowspan := spanAttr(td, "rowspan")

			for len(row) < col+colspan {
				row = append(row, sheet.Empty())
			}
			row[col] = sheet.InferCell(cellText(td))

			for dr := 1; dr < rowspan; dr++ {
				if occupied[r+dr] == nil {
					occupied[r+dr] = make(map[int]bool)
				}
				for dc := 0; dc < colspan; dc++ {
					occupied[r+dr][col+dc] = true
				}
			}
			col += colspan
		}
		rows = append(rows, row)
		delete(occupied, r)
	}
	return caption, rows
}

func spanAttr(n *html.Node, key string) int {
	for _, a := range n.Attr {
		if a.Key != key {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(a.Val))
		if err != nil || v < 1 {
			return 1
		}
		return min(v, maxSpan)
	}
	return 1
}

// cellText concatenates descendant text with whitespace collapsed
func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			b.WriteByte(' ')
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
