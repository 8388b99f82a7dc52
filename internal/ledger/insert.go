package ledger

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bill-ledger/internal/bill"
	"github.com/dvloznov/bill-ledger/internal/doc"
)

// ErrEmptyBill rejects bills with no line items before any mutation.
var ErrEmptyBill = errors.New("bill has no items")

// maxTemplateCells caps how many columns a newly created row copies
// from its template, guarding against repeated trailing columns.
const maxTemplateCells = 10

// separatorGap is the offset past the last data row where a new date
// group starts, leaving room for the blank separator row.
const separatorGap = 1

// Engine inserts single bills into a loaded ledger document. It owns no
// I/O; the batch manager handles loading, saving, and rollback.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

// NewEngine creates an insertion engine.
func NewEngine(cfg Config, log zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// InsertOne merges one bill into the document. Duplicates and missing
// monthly sheets are logged skips, never errors; anything else that
// goes wrong is returned so the batch manager can roll back.
func (e *Engine) InsertOne(d doc.Document, b bill.Record) error {
	if len(b.Items) == 0 {
		return fmt.Errorf("insert %s on %s: %w", b.Store, b.Date, ErrEmptyBill)
	}

	if e.IsDuplicate(d, b.Date, b.Store, b.Total) {
		e.log.Warn().
			Str("store", b.Store).
			Str("date", b.Date.String()).
			Float64("total", b.Total).
			Msg("Skipping duplicate bill")
		return nil
	}

	sheetName := SheetName(b.Date)
	sh, ok := d.Sheet(sheetName)
	if !ok {
		e.log.Warn().
			Str("sheet", sheetName).
			Str("store", b.Store).
			Msg("Sheet not found, skipping bill")
		return nil
	}

	targetIdx, ok := findDateRow(sh, e.cfg.Columns, b.Date)
	if !ok {
		e.log.Info().Str("date", b.Date.String()).Msg("Creating new date row")
		targetIdx = e.createDateRow(d, sh, b.Date)
	}

	target := sh.Row(targetIdx)
	rowStyle := target.Style()

	// Bills sharing a date coexist: capture whatever the target row
	// holds now so it can be pushed below the new group.
	var saved []SavedCell
	if rowHasData(target, e.cfg.Columns) {
		saved = saveRow(target)
	}

	if err := e.writeFirstItem(d, target, b); err != nil {
		return fmt.Errorf("insert %s on %s: %w", b.Store, b.Date, err)
	}

	// New rows go immediately before the row that followed the target
	// when insertion started; insertAt tracks that slot as it shifts.
	insertAt := targetIdx + 1

	for i, item := range b.Items[1:] {
		var total *float64
		if i == len(b.Items)-2 {
			total = &b.Total
		}
		row := e.spliceRow(sh, &insertAt)
		if err := populateItemRow(d, row, target, e.cfg.Columns, "", item.Name, item.Price, total); err != nil {
			return fmt.Errorf("insert %s on %s: item %d: %w", b.Store, b.Date, i+2, err)
		}
	}

	if saved != nil {
		populateSeparatorRow(e.spliceRow(sh, &insertAt), target)
		if err := populateRestoredRow(d, e.spliceRow(sh, &insertAt), saved, rowStyle, e.cfg.Columns); err != nil {
			return fmt.Errorf("insert %s on %s: restore prior row: %w", b.Store, b.Date, err)
		}
	}

	e.log.Info().
		Str("store", b.Store).
		Str("date", b.Date.String()).
		Int("items", len(b.Items)).
		Float64("total", b.Total).
		Msg("Inserted bill")
	return nil
}

// writeFirstItem overwrites the target row with the bill's store and
// first item. The total area is cleared of stale attributes and the
// total written only when the bill has exactly one item.
func (e *Engine) writeFirstItem(d doc.Document, target doc.Row, b bill.Record) error {
	cols := e.cfg.Columns
	if err := WriteCell(d, target.Cell(cols.Store), b.Store); err != nil {
		return err
	}
	if err := WriteCell(d, target.Cell(cols.Item), b.Items[0].Name); err != nil {
		return err
	}
	if err := writePrice(d, target.Cell(cols.Price), b.Items[0].Price); err != nil {
		return err
	}

	for col := cols.Total; col < target.CellCount(); col++ {
		ClearCompletely(target.Cell(col))
	}
	if len(b.Items) == 1 && target.CellCount() > cols.Total {
		return WriteCell(d, target.Cell(cols.Total), b.Total)
	}
	return nil
}

// spliceRow inserts a new row at *insertAt (appending when the slot is
// past the end) and advances the slot.
func (e *Engine) spliceRow(sh doc.Sheet, insertAt *int) doc.Row {
	var row doc.Row
	if *insertAt < sh.RowCount() {
		row = sh.InsertRowBefore(*insertAt)
	} else {
		row = sh.AppendRow()
	}
	*insertAt++
	return row
}

// createDateRow creates the date marker row for a date that has no row
// yet, preceded by a blank separator row. The pair is spliced before
// the first chronologically later row when one exists, otherwise after
// the sheet's last data row. Returns the new date row's index.
func (e *Engine) createDateRow(d doc.Document, sh doc.Sheet, date civil.Date) int {
	cols := e.cfg.Columns

	// Style template: the last data row, when the sheet has one.
	var tmpl doc.Row
	if last := findLastRow(sh, cols); last >= 0 {
		tmpl = sh.Row(last)
	}

	cellCount := cols.Total + 1
	if tmpl != nil && tmpl.CellCount() > cellCount && tmpl.CellCount() <= maxTemplateCells {
		cellCount = tmpl.CellCount()
	}

	insertAt, chronological := findChronologicalInsertionPoint(sh, cols, date)
	if !chronological {
		base := findLastRow(sh, cols)
		if base < 0 {
			base = sh.RowCount() - 1
		}
		insertAt = base + separatorGap
	}

	sep := e.spliceRow(sh, &insertAt)
	e.populateBlankStyled(sep, tmpl, cellCount, -1)

	dateRow := e.spliceRow(sh, &insertAt)
	// The date column keeps the document date style applied by the
	// codec instead of the template's column style.
	e.populateBlankStyled(dateRow, tmpl, cellCount, cols.Date)
	writeDate(d, dateRow.Cell(cols.Date), date)

	return insertAt - 1
}

// populateBlankStyled fills row with cellCount empty cells styled after
// tmpl, skipping the style copy for skipCol (-1 to copy all).
func (e *Engine) populateBlankStyled(row doc.Row, tmpl doc.Row, cellCount, skipCol int) {
	if tmpl != nil {
		row.SetStyle(tmpl.Style())
	}
	for col := 0; col < cellCount; col++ {
		c := row.Cell(col)
		if tmpl != nil && col < tmpl.CellCount() && col != skipCol {
			c.SetStyle(tmpl.Cell(col).Style())
		}
	}
}
