// Package ledger implements safe, idempotent insertion of bill records
// into a live formatted spreadsheet document: one sheet per calendar
// month, one row per item, per-bill grouping inside a date, duplicate
// detection at the (date, store, total) level, and all-or-nothing batch
// commits via file-level backup.
package ledger

import "fmt"

// Columns maps the fixed ledger column layout (0-indexed). Rows may
// carry more trailing columns; those are preserved but not interpreted.
type Columns struct {
	Date  int
	Store int
	Item  int
	Price int
	Total int
}

// DefaultColumns is the layout every known ledger uses: column 0 is
// decorative, then date, store, item name, item price, total.
func DefaultColumns() Columns {
	return Columns{Date: 1, Store: 2, Item: 3, Price: 4, Total: 5}
}

// Config carries everything the engine needs, passed in explicitly so
// tests can run against in-memory fixtures. No package-level state.
type Config struct {
	Columns Columns
	// Tolerance is the total-amount slack for duplicate detection, in
	// currency units. Two totals within Tolerance compare equal.
	Tolerance float64
}

// DefaultConfig returns the standard layout with a one-cent tolerance.
func DefaultConfig() Config {
	return Config{Columns: DefaultColumns(), Tolerance: 0.01}
}

// Validate rejects configurations the engine cannot operate on.
func (c Config) Validate() error {
	cols := []int{c.Columns.Date, c.Columns.Store, c.Columns.Item, c.Columns.Price, c.Columns.Total}
	seen := make(map[int]bool, len(cols))
	for _, col := range cols {
		if col < 0 {
			return fmt.Errorf("ledger config: negative column index %d", col)
		}
		if seen[col] {
			return fmt.Errorf("ledger config: column index %d assigned twice", col)
		}
		seen[col] = true
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("ledger config: negative tolerance %g", c.Tolerance)
	}
	return nil
}
