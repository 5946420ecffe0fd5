package ui

import (
	"fmt"
	"time"

	"sheetview/domain/sheet"
	"sheetview/internal/viewer"

	"github.com/dustin/go-humanize"
)

// MaxRenderedRows caps the rows written into the HTML table; the JSON API
// always returns every row.
const MaxRenderedRows = 2000

// ViewState is everything the page depends on
type ViewState struct {
	Collection  *sheet.SheetCollection
	Generation  uint64
	Loading     bool
	LastError   string
	ActiveSheet int
	Source      string
	Format      sheet.Format
	Bytes       int64
	LoadedAt    time.Time
	Now         time.Time
}

// StateFromSnapshot builds a ViewState for the sheet at active
func StateFromSnapshot(snap viewer.Snapshot, active int) ViewState {
	return ViewState{
		Collection:  snap.Collection,
		Generation:  snap.Generation,
		Loading:     snap.Loading,
		LastError:   snap.LastError,
		ActiveSheet: active,
		Source:      snap.Source,
		Format:      snap.Format,
		Bytes:       snap.Bytes,
		LoadedAt:    snap.LoadedAt,
		Now:         time.Now(),
	}
}

// Page is the render model of the viewer page
type Page struct {
	Title     string
	Accept    string
	Loading   bool
	Error     string
	Empty     bool
	ShowTabs  bool
	Tabs      []Tab
	Table     *Table
	Source    string
	Format    string
	Size      string
	LoadedAgo string
	// ReadOnly hides the loaders and the drop zone
	ReadOnly bool
}

// Tab is one sheet tab
type Tab struct {
	Index  int
	Name   string
	Href   string
	Active bool
}

// Table is the active sheet rendered as strings
type Table struct {
	Name      string
	Columns   []sheet.ColumnDescriptor
	Rows      [][]string
	RowCount  int
	Truncated bool
}

// BuildPage derives the page from state. Tabs are shown only when there is
// more than one sheet; an out-of-range ActiveSheet selects the first sheet.
func BuildPage(state ViewState) Page {
	page := Page{
		Title:   "Sheet Viewer",
		Accept:  sheet.AcceptAttribute(),
		Loading: state.Loading,
		Error:   state.LastError,
		Empty:   state.Collection.IsEmpty(),
	}
	if page.Empty {
		return page
	}

	coll := state.Collection
	active := state.ActiveSheet
	if active < 0 || active >= coll.Len() {
		active = 0
	}

	page.Source = state.Source
	page.Format = string(state.Format)
	if state.Bytes > 0 {
		page.Size = humanize.Bytes(uint64(state.Bytes))
	}
	if !state.LoadedAt.IsZero() {
		now := state.Now
		if now.IsZero() {
			now = time.Now()
		}
		page.LoadedAgo = humanize.RelTime(state.LoadedAt, now, "ago", "from now")
	}

	page.ShowTabs = coll.Len() > 1
	if page.ShowTabs {
		page.Tabs = make([]Tab, coll.Len())
		for i, name := range coll.SheetNames {
			page.Tabs[i] = Tab{
				Index:  i,
				Name:   name,
				Href:   fmt.Sprintf("/?sheet=%d", i),
				Active: i == active,
			}
		}
	}

	name, rows, cols, _ := coll.Sheet(active)
	page.Title = name
	page.Table = buildTable(name, rows, cols)
	return page
}

func buildTable(name string, rows []sheet.Row, cols []sheet.ColumnDescriptor) *Table {
	t := &Table{Name: name, Columns: cols, RowCount: len(rows)}
	n := len(rows)
	if n > MaxRenderedRows {
		n = MaxRenderedRows
		t.Truncated = true
	}
	t.Rows = make([][]string, n)
	for i := 0; i < n; i++ {
		t.Rows[i] = rows[i].Texts(len(cols))
	}
	return t
}
