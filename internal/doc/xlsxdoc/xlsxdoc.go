// Package xlsxdoc implements the doc interfaces over .xlsx workbooks
// using excelize. It is the storage adapter for real ledger files; the
// engine itself only sees the doc interfaces.
//
// The doc interfaces are error-free because the in-memory model cannot
// fail; here, excelize errors are sticky on the Workbook and surface
// from Save, which the batch manager treats as a fatal (rolled back)
// mutation failure.
package xlsxdoc

import (
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/bill-ledger/internal/doc"
)

// dateNumFmt renders date cells the way the ledger sheets display them.
const dateNumFmt = "DD.MM.YY"

// Workbook is an open .xlsx ledger document.
type Workbook struct {
	f    *excelize.File
	path string

	dateStyle int
	err       error
}

// Open loads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// SaveAs writes the workbook to path, reporting any mutation error
// recorded since opening.
func (w *Workbook) SaveAs(path string) error {
	if w.err != nil {
		return fmt.Errorf("workbook %s: deferred mutation error: %w", w.path, w.err)
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Err returns the first mutation error recorded on the workbook.
func (w *Workbook) Err() error { return w.err }

func (w *Workbook) setErr(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Sheet implements doc.Document.
func (w *Workbook) Sheet(name string) (doc.Sheet, bool) {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, false
	}
	return &sheet{wb: w, name: name}, true
}

// SheetNames implements doc.Document.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// DateStyle implements doc.Document, creating the DD.MM.YY cell style
// on first use.
func (w *Workbook) DateStyle() (int, bool) {
	if w.dateStyle == 0 {
		numFmt := dateNumFmt
		id, err := w.f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			w.setErr(fmt.Errorf("create date style: %w", err))
			return 0, false
		}
		w.dateStyle = id
	}
	return w.dateStyle, true
}

type sheet struct {
	wb   *Workbook
	name string
}

func (s *sheet) Name() string { return s.name }

func (s *sheet) RowCount() int {
	rows, err := s.wb.f.GetRows(s.name)
	if err != nil {
		s.wb.setErr(fmt.Errorf("sheet %s: get rows: %w", s.name, err))
		return 0
	}
	return len(rows)
}

func (s *sheet) Row(idx int) doc.Row {
	return &row{sheet: s, idx: idx}
}

func (s *sheet) InsertRowBefore(idx int) doc.Row {
	if err := s.wb.f.InsertRows(s.name, idx+1, 1); err != nil {
		s.wb.setErr(fmt.Errorf("sheet %s: insert row %d: %w", s.name, idx, err))
	}
	return &row{sheet: s, idx: idx}
}

func (s *sheet) AppendRow() doc.Row {
	idx := s.RowCount()
	// Materialize the row so RowCount sees it.
	axis, err := excelize.CoordinatesToCellName(1, idx+1)
	if err == nil {
		err = s.wb.f.SetCellStr(s.name, axis, "")
	}
	if err != nil {
		s.wb.setErr(fmt.Errorf("sheet %s: append row: %w", s.name, err))
	}
	return &row{sheet: s, idx: idx}
}

type row struct {
	sheet *sheet
	idx   int
}

func (r *row) CellCount() int {
	rows, err := r.sheet.wb.f.GetRows(r.sheet.name)
	if err != nil {
		r.sheet.wb.setErr(fmt.Errorf("sheet %s: get rows: %w", r.sheet.name, err))
		return 0
	}
	if r.idx >= len(rows) {
		return 0
	}
	return len(rows[r.idx])
}

func (r *row) Cell(col int) doc.Cell {
	return &cell{sheet: r.sheet, row: r.idx, col: col}
}

// Row-level styles are not separately addressable in xlsx; formatting
// lives on the cells. Style reads as the zero style and SetStyle is
// applied only for a real identifier.
func (r *row) Style() int { return 0 }

func (r *row) SetStyle(id int) {
	if id == 0 {
		return
	}
	if err := r.sheet.wb.f.SetRowStyle(r.sheet.name, r.idx+1, r.idx+1, id); err != nil {
		r.sheet.wb.setErr(fmt.Errorf("sheet %s: set row style: %w", r.sheet.name, err))
	}
}

type cell struct {
	sheet *sheet
	row   int
	col   int
}

func (c *cell) axis() string {
	axis, err := excelize.CoordinatesToCellName(c.col+1, c.row+1)
	if err != nil {
		c.sheet.wb.setErr(fmt.Errorf("cell coordinates (%d,%d): %w", c.col, c.row, err))
		return "A1"
	}
	return axis
}

// Value implements doc.Cell. Date cells written by this package carry
// the workbook date style and decode back to calendar dates; dates that
// predate us render through their number format into display text the
// locator's permissive parser understands.
func (c *cell) Value() doc.Value {
	f := c.sheet.wb.f
	axis := c.axis()

	if formula, err := f.GetCellFormula(c.sheet.name, axis); err == nil && formula != "" {
		return doc.Value{Kind: doc.KindFormula, Formula: "=" + formula}
	}

	raw, err := f.GetCellValue(c.sheet.name, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		c.sheet.wb.setErr(fmt.Errorf("read cell %s!%s: %w", c.sheet.name, axis, err))
		return doc.Value{Kind: doc.KindEmpty}
	}
	formatted, _ := f.GetCellValue(c.sheet.name, axis)

	if raw == "" && formatted == "" {
		return doc.Value{Kind: doc.KindEmpty}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if c.Style() != 0 && c.Style() == c.sheet.wb.dateStyle {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return doc.Value{Kind: doc.KindDate, Date: civil.DateOf(t), Text: formatted}
			}
		}
		return doc.Value{Kind: doc.KindNumber, Number: serial, Text: formatted}
	}

	if formatted == "" {
		formatted = raw
	}
	return doc.Value{Kind: doc.KindString, Text: formatted}
}

func (c *cell) SetNumber(f float64) {
	c.clearFormula()
	if err := c.sheet.wb.f.SetCellFloat(c.sheet.name, c.axis(), f, -1, 64); err != nil {
		c.sheet.wb.setErr(fmt.Errorf("set number %s!%s: %w", c.sheet.name, c.axis(), err))
	}
}

func (c *cell) SetString(s string) {
	c.clearFormula()
	if err := c.sheet.wb.f.SetCellStr(c.sheet.name, c.axis(), s); err != nil {
		c.sheet.wb.setErr(fmt.Errorf("set string %s!%s: %w", c.sheet.name, c.axis(), err))
	}
}

func (c *cell) SetDate(d civil.Date, display string) {
	c.clearFormula()
	// The serial value carries the date; display text comes from the
	// number format, so the display argument is not stored separately.
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	if err := c.sheet.wb.f.SetCellValue(c.sheet.name, c.axis(), t); err != nil {
		c.sheet.wb.setErr(fmt.Errorf("set date %s!%s: %w", c.sheet.name, c.axis(), err))
	}
}

func (c *cell) SetFormula(expr string) {
	if len(expr) > 0 && expr[0] == '=' {
		expr = expr[1:]
	}
	if err := c.sheet.wb.f.SetCellFormula(c.sheet.name, c.axis(), expr); err != nil {
		c.sheet.wb.setErr(fmt.Errorf("set formula %s!%s: %w", c.sheet.name, c.axis(), err))
	}
}

func (c *cell) Clear() {
	c.clearFormula()
	if err := c.sheet.wb.f.SetCellValue(c.sheet.name, c.axis(), nil); err != nil {
		c.sheet.wb.setErr(fmt.Errorf("clear cell %s!%s: %w", c.sheet.name, c.axis(), err))
	}
}

func (c *cell) Style() int {
	id, err := c.sheet.wb.f.GetCellStyle(c.sheet.name, c.axis())
	if err != nil {
		c.sheet.wb.setErr(fmt.Errorf("get style %s!%s: %w", c.sheet.name, c.axis(), err))
		return 0
	}
	return id
}

func (c *cell) SetStyle(id int) {
	axis := c.axis()
	if err := c.sheet.wb.f.SetCellStyle(c.sheet.name, axis, axis, id); err != nil {
		c.sheet.wb.setErr(fmt.Errorf("set style %s!%s: %w", c.sheet.name, axis, err))
	}
}

// clearFormula drops any formula attribute so an overwritten cell never
// keeps a stale expression.
func (c *cell) clearFormula() {
	if err := c.sheet.wb.f.SetCellFormula(c.sheet.name, c.axis(), ""); err != nil {
		c.sheet.wb.setErr(fmt.Errorf("clear formula %s!%s: %w", c.sheet.name, c.axis(), err))
	}
}
