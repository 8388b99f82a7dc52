package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bill-ledger/internal/doc"
)

// dateDisplayLayout is how date cells render in the ledger sheets.
const dateDisplayLayout = "02.01.06"

// ReadCell reads a cell's typed value. Untyped or blank cells read as
// an empty string value, never as an absent value, so every comparison
// in the scan code stays total.
func ReadCell(c doc.Cell) doc.Value {
	v := c.Value()
	if v.Kind == doc.KindEmpty {
		return doc.Value{Kind: doc.KindString}
	}
	return v
}

// WriteCell clears the cell's current content and stores v, classifying
// it by type:
//
//   - calendar dates and timestamps become date cells with a DD.MM.YY
//     display text and the document-level date style when available;
//   - numerics become float cells;
//   - strings starting with "=" become formula cells, with decimal
//     commas normalized to dots so the spreadsheet engine accepts them;
//   - every other string is first tried as a locale number (comma or
//     dot decimal) and only stored as text when that parse fails.
//
// The numeric sniffing of strings is deliberate: the ledger never
// distinguishes "123" from 123, keeping formula arithmetic and totals
// consistent across hand-edited and generated cells.
func WriteCell(d doc.Document, c doc.Cell, v any) error {
	switch val := v.(type) {
	case civil.Date:
		writeDate(d, c, val)
	case time.Time:
		writeDate(d, c, civil.DateOf(val))
	case float64:
		c.SetNumber(val)
	case int:
		c.SetNumber(float64(val))
	case string:
		writeString(c, val)
	case doc.Value:
		return writeValue(d, c, val)
	default:
		return fmt.Errorf("write cell: unsupported value type %T", v)
	}
	return nil
}

// ClearCompletely restores the cell to an untyped blank: content, all
// value and formula attributes, and any cached value type are removed.
// The cell's style stays attached.
func ClearCompletely(c doc.Cell) {
	c.Clear()
}

func writeDate(d doc.Document, c doc.Cell, date civil.Date) {
	c.SetDate(date, date.In(time.UTC).Format(dateDisplayLayout))
	if id, ok := d.DateStyle(); ok {
		c.SetStyle(id)
	}
}

func writeString(c doc.Cell, s string) {
	if strings.HasPrefix(s, "=") {
		c.SetFormula(strings.ReplaceAll(s, ",", "."))
		return
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		c.SetNumber(f)
		return
	}
	c.SetString(s)
}

// writeValue replays a previously read value, used when restoring saved
// row data.
func writeValue(d doc.Document, c doc.Cell, v doc.Value) error {
	switch v.Kind {
	case doc.KindEmpty:
		c.Clear()
	case doc.KindNumber:
		c.SetNumber(v.Number)
	case doc.KindString:
		writeString(c, v.Text)
	case doc.KindDate:
		writeDate(d, c, v.Date)
	case doc.KindFormula:
		c.SetFormula(strings.ReplaceAll(v.Formula, ",", "."))
	default:
		return fmt.Errorf("write cell: unknown value kind %d", v.Kind)
	}
	return nil
}
