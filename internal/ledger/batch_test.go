package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/bill-ledger/internal/bill"
	"github.com/dvloznov/bill-ledger/internal/doc"
	"github.com/dvloznov/bill-ledger/internal/doc/memdoc"
)

// mockStore is an in-memory Store whose save step writes a marker to
// the ledger file so tests can observe whether a save happened.
type mockStore struct {
	LoadFunc func(path string) (doc.Document, error)
	SaveFunc func(d doc.Document, path string) error

	loads int
	saves int
}

func (m *mockStore) Load(path string) (doc.Document, error) {
	m.loads++
	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	return memdoc.New(), nil
}

func (m *mockStore) Save(d doc.Document, path string) error {
	m.saves++
	if m.SaveFunc != nil {
		return m.SaveFunc(d, path)
	}
	return os.WriteFile(path, []byte("saved"), 0o644)
}

// mockInserter records insertion order and can be told to fail.
type mockInserter struct {
	InsertOneFunc func(d doc.Document, b bill.Record) error

	inserted []bill.Record
}

func (m *mockInserter) InsertOne(d doc.Document, b bill.Record) error {
	m.inserted = append(m.inserted, b)
	if m.InsertOneFunc != nil {
		return m.InsertOneFunc(d, b)
	}
	return nil
}

func writeLedgerFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write ledger file: %v", err)
	}
	return path
}

// listBackups returns the backup files sitting next to the ledger.
func listBackups(t *testing.T, ledgerPath string) []string {
	t.Helper()
	pattern := filepath.Join(filepath.Dir(ledgerPath), "ledger_backup_*.xlsx")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("glob backups: %v", err)
	}
	return matches
}

func TestProcessBatchSuccess(t *testing.T) {
	path := writeLedgerFile(t, "original")
	store := &mockStore{}
	ins := &mockInserter{}
	batch := NewBatch(store, ins, zerolog.Nop())

	bills := []bill.Record{
		marchBill(10, "Lidl", 2.49, item("Äpfel 1kg", 2.49)),
		marchBill(5, "REWE", 1.19, item("Milch", 1.19)),
		marchBill(7, "Edeka", 1.44, item("Cola", 1.44)),
	}

	if err := batch.ProcessBatch(path, bills); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if store.loads != 1 || store.saves != 1 {
		t.Errorf("loads = %d, saves = %d; want exactly one of each", store.loads, store.saves)
	}

	// Insertion order is ascending by date regardless of input order.
	var gotDays []int
	for _, b := range ins.inserted {
		gotDays = append(gotDays, b.Date.Day)
	}
	wantDays := []int{5, 7, 10}
	if fmt.Sprint(gotDays) != fmt.Sprint(wantDays) {
		t.Errorf("insertion days = %v, want %v", gotDays, wantDays)
	}

	if got := batch.State(); got != StateBackupRemoved {
		t.Errorf("state = %v, want %v", got, StateBackupRemoved)
	}
	if backups := listBackups(t, path); len(backups) != 0 {
		t.Errorf("backup files left after success: %v", backups)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if string(data) != "saved" {
		t.Errorf("ledger content = %q, want the saved document", data)
	}
}

func TestProcessBatchInsertFailureRollsBack(t *testing.T) {
	path := writeLedgerFile(t, "original-bytes")
	boom := errors.New("cell write failed")

	store := &mockStore{
		SaveFunc: func(d doc.Document, path string) error {
			t.Error("save must not run after a failed insert")
			return nil
		},
	}
	ins := &mockInserter{
		InsertOneFunc: func(d doc.Document, b bill.Record) error {
			if b.Store == "Edeka" {
				return boom
			}
			// Simulate the engine dirtying the file mid-batch.
			return os.WriteFile(path, []byte("dirty"), 0o644)
		},
	}
	batch := NewBatch(store, ins, zerolog.Nop())

	bills := []bill.Record{
		marchBill(5, "REWE", 1.19, item("Milch", 1.19)),
		marchBill(7, "Edeka", 1.44, item("Cola", 1.44)),
		marchBill(10, "Lidl", 2.49, item("Äpfel 1kg", 2.49)),
	}

	err := batch.ProcessBatch(path, bills)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the insert failure", err)
	}

	if got := batch.State(); got != StateFailed {
		t.Errorf("state = %v, want %v", got, StateFailed)
	}
	if len(ins.inserted) != 2 {
		t.Errorf("inserted %d bills before failing, want 2", len(ins.inserted))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if !bytes.Equal(data, []byte("original-bytes")) {
		t.Errorf("ledger content = %q, want pre-batch bytes restored", data)
	}

	// The backup stays on disk after a rollback.
	if backups := listBackups(t, path); len(backups) != 1 {
		t.Errorf("backups after rollback = %v, want exactly one", backups)
	}
}

func TestProcessBatchSaveFailureRollsBack(t *testing.T) {
	path := writeLedgerFile(t, "original")
	saveErr := errors.New("disk full")

	store := &mockStore{
		SaveFunc: func(d doc.Document, path string) error { return saveErr },
	}
	batch := NewBatch(store, &mockInserter{}, zerolog.Nop())

	err := batch.ProcessBatch(path, []bill.Record{
		marchBill(5, "REWE", 1.19, item("Milch", 1.19)),
	})
	if !errors.Is(err, saveErr) {
		t.Fatalf("error = %v, want the save failure", err)
	}
	if got := batch.State(); got != StateFailed {
		t.Errorf("state = %v, want %v", got, StateFailed)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("ledger content = %q, want original restored", data)
	}
}

func TestProcessBatchLoadFailureRollsBack(t *testing.T) {
	path := writeLedgerFile(t, "original")
	loadErr := errors.New("corrupt file")

	store := &mockStore{
		LoadFunc: func(path string) (doc.Document, error) { return nil, loadErr },
	}
	batch := NewBatch(store, &mockInserter{}, zerolog.Nop())

	err := batch.ProcessBatch(path, []bill.Record{
		marchBill(5, "REWE", 1.19, item("Milch", 1.19)),
	})
	if !errors.Is(err, loadErr) {
		t.Fatalf("error = %v, want the load failure", err)
	}
	if got := batch.State(); got != StateFailed {
		t.Errorf("state = %v, want %v", got, StateFailed)
	}
}

func TestProcessBatchEmptyIsNoOp(t *testing.T) {
	store := &mockStore{}
	batch := NewBatch(store, &mockInserter{}, zerolog.Nop())

	if err := batch.ProcessBatch("/nonexistent/ledger.xlsx", nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
	if store.loads != 0 {
		t.Errorf("empty batch loaded the document %d times", store.loads)
	}
}

func TestProcessBatchRejectsEmptyBillBeforeBackup(t *testing.T) {
	path := writeLedgerFile(t, "original")
	store := &mockStore{}
	batch := NewBatch(store, &mockInserter{}, zerolog.Nop())

	bills := []bill.Record{
		marchBill(5, "REWE", 1.19, item("Milch", 1.19)),
		{Store: "Edeka", Date: marchBill(7, "", 0).Date}, // no items
	}

	err := batch.ProcessBatch(path, bills)
	if !errors.Is(err, ErrEmptyBill) {
		t.Fatalf("error = %v, want ErrEmptyBill", err)
	}
	if store.loads != 0 {
		t.Errorf("precondition failure must not load the document")
	}
	if backups := listBackups(t, path); len(backups) != 0 {
		t.Errorf("precondition failure must not create a backup, found %v", backups)
	}
}

func TestProcessBatchDoesNotMutateInput(t *testing.T) {
	path := writeLedgerFile(t, "original")
	batch := NewBatch(&mockStore{}, &mockInserter{}, zerolog.Nop())

	bills := []bill.Record{
		marchBill(10, "Lidl", 2.49, item("Äpfel 1kg", 2.49)),
		marchBill(5, "REWE", 1.19, item("Milch", 1.19)),
	}

	if err := batch.ProcessBatch(path, bills); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if bills[0].Date.Day != 10 || bills[1].Date.Day != 5 {
		t.Errorf("input slice was reordered: %v, %v", bills[0].Date, bills[1].Date)
	}
}
