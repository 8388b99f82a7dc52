package xlsxdoc

import (
	"fmt"

	"github.com/dvloznov/bill-ledger/internal/doc"
)

// Store adapts this package to the batch manager's load/save seam.
type Store struct{}

// Load opens the workbook at path.
func (Store) Load(path string) (doc.Document, error) {
	return Open(path)
}

// Save writes the document back to path. The document must have been
// produced by Load.
func (Store) Save(d doc.Document, path string) error {
	wb, ok := d.(*Workbook)
	if !ok {
		return fmt.Errorf("save: document is %T, not an xlsx workbook", d)
	}
	defer wb.Close()
	return wb.SaveAs(path)
}
