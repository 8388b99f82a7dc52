package ledger

import (
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bill-ledger/internal/doc"
)

// A bill renders as a group of consecutive rows (one per item) but its
// duplicate identity is the (date, store, total) triple. groupScanner
// walks one date group with an explicit state machine so the tie-break
// rules stay auditable: the date match is mandatory and checked first,
// then store and total are searched strictly in document order, bounded
// by the date and store markers that delimit neighbouring groups.
type scanState int

const (
	seekStore scanState = iota
	seekTotal
	scanMatched
	scanNoMatch
)

// dupScanner holds the search criteria for one duplicate check.
type dupScanner struct {
	sheet doc.Sheet
	cols  Columns
	tol   float64

	date  civil.Date
	store string
	total float64
}

// IsDuplicate reports whether a bill with the same date, store, and
// total already exists in the document. Store names compare case- and
// whitespace-insensitively; totals compare within the configured
// tolerance. Item lists are deliberately not compared: two bills with
// identical (date, store, total) count as the same bill.
func (e *Engine) IsDuplicate(d doc.Document, date civil.Date, store string, total float64) bool {
	sh, ok := d.Sheet(SheetName(date))
	if !ok {
		return false
	}
	s := &dupScanner{
		sheet: sh,
		cols:  e.cfg.Columns,
		tol:   e.cfg.Tolerance,
		date:  date,
		store: normalizeStore(store),
		total: total,
	}
	return s.run()
}

// run tries every date-marker row carrying the target date; a bill
// group always starts on one.
func (s *dupScanner) run() bool {
	for idx := 0; idx < s.sheet.RowCount(); idx++ {
		d, ok := rowDate(s.sheet, s.cols, idx)
		if !ok || d != s.date {
			continue
		}
		if s.scanGroup(idx, s.groupEnd(idx)) {
			return true
		}
	}
	return false
}

// groupEnd returns the index of the next row after start carrying any
// date value, delimiting how far this date's bills extend.
func (s *dupScanner) groupEnd(start int) int {
	for idx := start + 1; idx < s.sheet.RowCount(); idx++ {
		if _, ok := rowDate(s.sheet, s.cols, idx); ok {
			return idx
		}
	}
	return s.sheet.RowCount()
}

// scanGroup searches rows [start, end) for a store match followed by a
// total match, restarting after a failed total so several same-store
// sub-groups under one date are each considered.
func (s *dupScanner) scanGroup(start, end int) bool {
	state := seekStore
	from := start
	storeRow := -1

	for state != scanMatched && state != scanNoMatch {
		switch state {
		case seekStore:
			storeRow, state = s.seekStoreRow(start, from, end)
		case seekTotal:
			from, state = s.seekTotalRow(storeRow, end)
		}
	}
	return state == scanMatched
}

// seekStoreRow scans [from, end) for the target store. A foreign store
// marker anywhere past the start row aborts the whole date group; the
// start row itself may carry a different store without aborting.
func (s *dupScanner) seekStoreRow(start, from, end int) (int, scanState) {
	for idx := from; idx < end; idx++ {
		sv := s.storeText(idx)
		if sv == "" {
			continue
		}
		if sv == s.store {
			return idx, seekTotal
		}
		if idx > start {
			return -1, scanNoMatch
		}
	}
	return -1, scanNoMatch
}

// seekTotalRow scans from the store row for a matching total. A new
// date or store marker redirects the store search to that row; a
// non-empty total that fails to match invalidates this candidate and
// the store search resumes one row further down. Running past the
// group's end without a total ends the group scan.
func (s *dupScanner) seekTotalRow(storeRow, end int) (int, scanState) {
	for idx := storeRow; idx < end; idx++ {
		if idx > storeRow {
			if _, isDate := rowDate(s.sheet, s.cols, idx); isDate || s.storeText(idx) != "" {
				return idx, seekStore
			}
		}
		tv := s.totalValue(idx)
		if tv == nil {
			continue
		}
		if math.Abs(*tv-s.total) <= s.tol {
			return idx, scanMatched
		}
		return idx + 1, seekStore
	}
	return end, scanNoMatch
}

// storeText reads the store column of a row in normalized form.
func (s *dupScanner) storeText(idx int) string {
	r := s.sheet.Row(idx)
	if s.cols.Store >= r.CellCount() {
		return ""
	}
	return normalizeStore(ReadCell(r.Cell(s.cols.Store)).DisplayText())
}

// totalValue reads the total column of a row as a number. Empty cells
// return nil; a non-empty cell that cannot be parsed returns NaN so the
// caller treats it as a failed total rather than skipping it.
func (s *dupScanner) totalValue(idx int) *float64 {
	r := s.sheet.Row(idx)
	if s.cols.Total >= r.CellCount() {
		return nil
	}
	v := ReadCell(r.Cell(s.cols.Total))
	if v.Kind == doc.KindNumber {
		return &v.Number
	}
	text := strings.TrimSpace(v.DisplayText())
	if text == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64); err == nil {
		return &f
	}
	nan := math.NaN()
	return &nan
}

// normalizeStore lowercases and collapses interior whitespace so store
// comparisons ignore case and spacing.
func normalizeStore(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
