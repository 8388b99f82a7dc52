package ledger

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bill-ledger/internal/bill"
	"github.com/dvloznov/bill-ledger/internal/doc"
)

// SheetName derives the monthly sheet name for a date, e.g. "Mar 24".
// The ledger relies on this fixed convention; it is not configurable.
func SheetName(d civil.Date) string {
	return d.In(time.UTC).Format("Jan 06")
}

// cellDate extracts a calendar date from a cell value, parsing display
// text permissively (day-first) when the cell is not date-typed.
func cellDate(v doc.Value) (civil.Date, bool) {
	if v.Kind == doc.KindDate {
		return v.Date, true
	}
	text := strings.TrimSpace(v.DisplayText())
	if text == "" {
		return civil.Date{}, false
	}
	d, err := bill.ParseDate(text)
	if err != nil {
		return civil.Date{}, false
	}
	return d, true
}

// rowDate reads the date column of row idx.
func rowDate(s doc.Sheet, cols Columns, idx int) (civil.Date, bool) {
	r := s.Row(idx)
	if cols.Date >= r.CellCount() {
		return civil.Date{}, false
	}
	return cellDate(ReadCell(r.Cell(cols.Date)))
}

// findDateRow returns the first row whose date column matches target.
// Non-parseable and empty date cells are skipped without error.
func findDateRow(s doc.Sheet, cols Columns, target civil.Date) (int, bool) {
	for idx := 0; idx < s.RowCount(); idx++ {
		if d, ok := rowDate(s, cols, idx); ok && d == target {
			return idx, true
		}
	}
	return 0, false
}

// findChronologicalInsertionPoint returns the first row whose date is
// strictly later than target, so a new date row spliced immediately
// before it keeps the sheet in chronological order. ok is false when no
// later date exists.
func findChronologicalInsertionPoint(s doc.Sheet, cols Columns, target civil.Date) (int, bool) {
	for idx := 0; idx < s.RowCount(); idx++ {
		if d, ok := rowDate(s, cols, idx); ok && target.Before(d) {
			return idx, true
		}
	}
	return 0, false
}

// findLastRow returns the index of the last row holding data in the
// store..total columns, or -1 when the sheet has none.
func findLastRow(s doc.Sheet, cols Columns) int {
	last := -1
	for idx := 0; idx < s.RowCount(); idx++ {
		r := s.Row(idx)
		for col := cols.Store; col <= cols.Total; col++ {
			if col >= r.CellCount() {
				continue
			}
			if strings.TrimSpace(ReadCell(r.Cell(col)).DisplayText()) != "" {
				last = idx
				break
			}
		}
	}
	return last
}
