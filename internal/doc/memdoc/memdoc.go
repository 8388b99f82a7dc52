// Package memdoc is the in-memory implementation of the doc interfaces.
// It models cells the way the attributed-XML ledger formats do — a
// value-type tag plus one value attribute per kind, a formula attribute,
// and display text — so attribute hygiene (stale tags cleared on
// overwrite) is observable in tests without touching files.
package memdoc

import (
	"cloud.google.com/go/civil"

	"github.com/dvloznov/bill-ledger/internal/doc"
)

// Document is an in-memory ledger document.
type Document struct {
	sheets []*Sheet

	dateStyle    int
	hasDateStyle bool
	nextStyle    int
}

// New creates an empty document.
func New() *Document {
	return &Document{nextStyle: 1}
}

// AddSheet appends a sheet with the given name and returns it.
func (d *Document) AddSheet(name string) *Sheet {
	s := &Sheet{name: name}
	d.sheets = append(d.sheets, s)
	return s
}

// Sheet implements doc.Document.
func (d *Document) Sheet(name string) (doc.Sheet, bool) {
	for _, s := range d.sheets {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// SheetNames implements doc.Document.
func (d *Document) SheetNames() []string {
	names := make([]string, 0, len(d.sheets))
	for _, s := range d.sheets {
		names = append(names, s.name)
	}
	return names
}

// DateStyle implements doc.Document. The first call allocates the style.
func (d *Document) DateStyle() (int, bool) {
	if !d.hasDateStyle {
		d.dateStyle = d.NewStyle()
		d.hasDateStyle = true
	}
	return d.dateStyle, true
}

// NewStyle allocates a fresh style identifier. Tests use it to build
// fixtures with distinguishable per-cell styles.
func (d *Document) NewStyle() int {
	id := d.nextStyle
	d.nextStyle++
	return id
}

// Sheet is an in-memory sheet.
type Sheet struct {
	name string
	rows []*Row
}

// Name implements doc.Sheet.
func (s *Sheet) Name() string { return s.name }

// RowCount implements doc.Sheet.
func (s *Sheet) RowCount() int { return len(s.rows) }

// Row implements doc.Sheet.
func (s *Sheet) Row(idx int) doc.Row { return s.rows[idx] }

// InsertRowBefore implements doc.Sheet.
func (s *Sheet) InsertRowBefore(idx int) doc.Row {
	r := &Row{}
	s.rows = append(s.rows, nil)
	copy(s.rows[idx+1:], s.rows[idx:])
	s.rows[idx] = r
	return r
}

// AppendRow implements doc.Sheet.
func (s *Sheet) AppendRow() doc.Row {
	r := &Row{}
	s.rows = append(s.rows, r)
	return r
}

// AddRow appends a row with the given style and cell count, for fixtures.
func (s *Sheet) AddRow(style int, cells int) *Row {
	r := &Row{style: style}
	for i := 0; i < cells; i++ {
		r.cells = append(r.cells, &Cell{})
	}
	s.rows = append(s.rows, r)
	return r
}

// Grid dumps every cell value, for structural comparison in tests.
func (s *Sheet) Grid() [][]doc.Value {
	grid := make([][]doc.Value, len(s.rows))
	for i, r := range s.rows {
		grid[i] = make([]doc.Value, len(r.cells))
		for j, c := range r.cells {
			grid[i][j] = c.Value()
		}
	}
	return grid
}

// Row is an in-memory row.
type Row struct {
	style int
	cells []*Cell
}

// CellCount implements doc.Row.
func (r *Row) CellCount() int { return len(r.cells) }

// Cell implements doc.Row, growing the row as needed.
func (r *Row) Cell(col int) doc.Cell {
	for len(r.cells) <= col {
		r.cells = append(r.cells, &Cell{})
	}
	return r.cells[col]
}

// Style implements doc.Row.
func (r *Row) Style() int { return r.style }

// SetStyle implements doc.Row.
func (r *Row) SetStyle(id int) { r.style = id }

// Cell is an in-memory cell. The fields mirror the attribute model of
// the on-disk formats: valueType is the tag, and exactly one of number,
// str, date, or formula is meaningful for a given tag.
type Cell struct {
	style int

	valueType doc.Kind
	number    float64
	str       string
	date      civil.Date
	formula   string
	text      string
}

// Value implements doc.Cell.
func (c *Cell) Value() doc.Value {
	switch c.valueType {
	case doc.KindNumber:
		return doc.Value{Kind: doc.KindNumber, Number: c.number, Text: c.text}
	case doc.KindString:
		return doc.Value{Kind: doc.KindString, Text: c.str}
	case doc.KindDate:
		return doc.Value{Kind: doc.KindDate, Date: c.date, Text: c.text}
	case doc.KindFormula:
		return doc.Value{Kind: doc.KindFormula, Formula: c.formula}
	}
	return doc.Value{Kind: doc.KindEmpty}
}

// SetNumber implements doc.Cell.
func (c *Cell) SetNumber(f float64) {
	c.reset()
	c.valueType = doc.KindNumber
	c.number = f
}

// SetString implements doc.Cell.
func (c *Cell) SetString(s string) {
	c.reset()
	c.valueType = doc.KindString
	c.str = s
	c.text = s
}

// SetDate implements doc.Cell.
func (c *Cell) SetDate(d civil.Date, display string) {
	c.reset()
	c.valueType = doc.KindDate
	c.date = d
	c.text = display
}

// SetFormula implements doc.Cell.
func (c *Cell) SetFormula(expr string) {
	c.reset()
	c.valueType = doc.KindFormula
	c.formula = expr
}

// Clear implements doc.Cell.
func (c *Cell) Clear() { c.reset() }

// Style implements doc.Cell.
func (c *Cell) Style() int { return c.style }

// SetStyle implements doc.Cell.
func (c *Cell) SetStyle(id int) { c.style = id }

// reset drops every value attribute so no stale tag survives an
// overwrite. Style is deliberately left alone.
func (c *Cell) reset() {
	c.valueType = doc.KindEmpty
	c.number = 0
	c.str = ""
	c.date = civil.Date{}
	c.formula = ""
	c.text = ""
}
