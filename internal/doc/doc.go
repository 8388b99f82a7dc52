// Package doc defines the document abstraction the ledger engine mutates:
// a Document owns named Sheets, a Sheet owns ordered Rows, a Row owns
// styled Cells carrying tagged values. Implementations exist per storage
// format (see memdoc for the in-memory model and xlsxdoc for .xlsx files).
package doc

import (
	"strconv"

	"cloud.google.com/go/civil"
)

// Kind tags the value stored in a cell.
type Kind int

const (
	// KindEmpty marks an untyped blank cell.
	KindEmpty Kind = iota
	// KindNumber marks a float-typed cell.
	KindNumber
	// KindString marks a text cell.
	KindString
	// KindDate marks a calendar-date cell.
	KindDate
	// KindFormula marks a cell whose value is a deferred arithmetic
	// expression evaluated by the spreadsheet engine, not by us.
	KindFormula
)

// Value is the tagged union read from and written to cells. Exactly the
// field matching Kind is meaningful; Text additionally carries the display
// string for number and date cells when the backing format has one.
type Value struct {
	Kind    Kind
	Number  float64
	Text    string
	Date    civil.Date
	Formula string
}

// IsEmpty reports whether the value carries no content.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindEmpty:
		return true
	case KindString:
		return v.Text == ""
	}
	return false
}

// DisplayText renders the value the way a sheet scan compares it:
// the stored text where present, otherwise a canonical rendering.
func (v Value) DisplayText() string {
	switch v.Kind {
	case KindString:
		return v.Text
	case KindNumber:
		if v.Text != "" {
			return v.Text
		}
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindDate:
		return v.Date.String()
	case KindFormula:
		return v.Formula
	}
	return ""
}

// Document is a loaded ledger document. Sheets are looked up, never
// created, by the insertion engine.
type Document interface {
	// Sheet returns the sheet with the given name.
	Sheet(name string) (Sheet, bool)
	// SheetNames lists all sheet names in document order.
	SheetNames() []string
	// DateStyle returns the document-level date display style, creating
	// it on first use. ok is false when the format has no such resource.
	DateStyle() (id int, ok bool)
}

// Sheet is an ordered sequence of rows supporting structural insertion.
type Sheet interface {
	Name() string
	RowCount() int
	// Row returns the row at idx. idx must be in [0, RowCount).
	Row(idx int) Row
	// InsertRowBefore splices a new empty row at idx, shifting idx and
	// everything below it down by one.
	InsertRowBefore(idx int) Row
	// AppendRow adds a new empty row after the last row.
	AppendRow() Row
}

// Row is a fixed-order sequence of cells plus a row-level style.
type Row interface {
	// CellCount is the number of cells materialized in the row.
	CellCount() int
	// Cell returns the cell at col, growing the row with untyped blank
	// cells when col is beyond the current cell count.
	Cell(col int) Cell
	Style() int
	SetStyle(id int)
}

// Cell stores one tagged value plus an independent style identifier.
// Setters replace the full value state: after SetNumber a cell must not
// carry leftover formula or date attributes, and so on for every kind.
type Cell interface {
	// Value reads the cell's tagged value. Blank cells read as KindEmpty.
	Value() Value
	SetNumber(f float64)
	SetString(s string)
	// SetDate stores a calendar date plus its display text.
	SetDate(d civil.Date, display string)
	// SetFormula stores a spreadsheet-evaluated expression ("=..." form)
	// under a numeric value type.
	SetFormula(expr string)
	// Clear restores the cell to an untyped blank, removing content and
	// every value, formula, and cached type attribute. Style is untouched.
	Clear()
	Style() int
	SetStyle(id int)
}
