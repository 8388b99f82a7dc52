package ledger

import (
	"strings"

	"github.com/dvloznov/bill-ledger/internal/bill"
	"github.com/dvloznov/bill-ledger/internal/doc"
)

// SavedCell is one cell's value and style captured before a row is
// overwritten, so prior data can be pushed down instead of lost.
type SavedCell struct {
	Value doc.Value
	Style int
}

// saveRow captures every cell of a row.
func saveRow(r doc.Row) []SavedCell {
	saved := make([]SavedCell, r.CellCount())
	for col := range saved {
		c := r.Cell(col)
		saved[col] = SavedCell{Value: ReadCell(c), Style: c.Style()}
	}
	return saved
}

// rowHasData reports whether the row holds content in the store, item,
// or price columns. A lone date marker does not count as data.
func rowHasData(r doc.Row, cols Columns) bool {
	for col := cols.Store; col < cols.Total; col++ {
		if col >= r.CellCount() {
			continue
		}
		v := ReadCell(r.Cell(col))
		if strings.TrimSpace(v.DisplayText()) != "" {
			return true
		}
	}
	return false
}

// populateItemRow fills row as one bill item line, copying the row
// style and per-column cell styles from tmpl. The store is written only
// when supplied (first row of a bill group) and the total only when
// supplied (designated last item row). Every other column becomes an
// empty but styled cell so the column count stays stable.
func populateItemRow(d doc.Document, row, tmpl doc.Row, cols Columns, store, name string, price bill.Price, total *float64) error {
	row.SetStyle(tmpl.Style())
	for col := 0; col < tmpl.CellCount(); col++ {
		c := row.Cell(col)
		c.SetStyle(tmpl.Cell(col).Style())

		switch {
		case col == cols.Store && store != "":
			if err := WriteCell(d, c, store); err != nil {
				return err
			}
		case col == cols.Item:
			if err := WriteCell(d, c, name); err != nil {
				return err
			}
		case col == cols.Price:
			if err := writePrice(d, c, price); err != nil {
				return err
			}
		case col == cols.Total && total != nil:
			if err := WriteCell(d, c, *total); err != nil {
				return err
			}
		}
	}
	return nil
}

// populateSeparatorRow fills row as a fully blank, styled row used to
// isolate bill groups sharing a date.
func populateSeparatorRow(row, tmpl doc.Row) {
	row.SetStyle(tmpl.Style())
	for col := 0; col < tmpl.CellCount(); col++ {
		row.Cell(col).SetStyle(tmpl.Cell(col).Style())
	}
}

// populateRestoredRow re-creates previously saved row data. Columns
// before the store column stay blank so the date marker is not
// duplicated; each restored cell keeps the style it was saved with.
func populateRestoredRow(d doc.Document, row doc.Row, saved []SavedCell, rowStyle int, cols Columns) error {
	row.SetStyle(rowStyle)
	for col, sc := range saved {
		c := row.Cell(col)
		c.SetStyle(sc.Style)
		if col < cols.Store || strings.TrimSpace(sc.Value.DisplayText()) == "" {
			continue
		}
		if err := WriteCell(d, c, sc.Value); err != nil {
			return err
		}
	}
	return nil
}

// writePrice stores a price, preserving deferred formulas for the
// spreadsheet engine to evaluate.
func writePrice(d doc.Document, c doc.Cell, p bill.Price) error {
	if p.IsFormula() {
		return WriteCell(d, c, p.Formula())
	}
	return WriteCell(d, c, p.Amount())
}
