package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bill-ledger/internal/backup"
	"github.com/dvloznov/bill-ledger/internal/bill"
	"github.com/dvloznov/bill-ledger/internal/doc"
)

// Store loads and saves ledger documents. The production implementation
// lives in xlsxdoc; tests substitute in-memory fakes.
type Store interface {
	Load(path string) (doc.Document, error)
	Save(d doc.Document, path string) error
}

// Inserter is the per-bill insertion seam, satisfied by *Engine.
type Inserter interface {
	InsertOne(d doc.Document, b bill.Record) error
}

// BatchState tracks where a batch is in its lifecycle. The success path
// runs Idle → BackedUp → Loaded → Inserting → Saved → BackupRemoved;
// any failure after the backup exists goes RestoringBackup → Failed.
type BatchState int

const (
	StateIdle BatchState = iota
	StateBackedUp
	StateLoaded
	StateInserting
	StateSaved
	StateBackupRemoved
	StateRestoringBackup
	StateFailed
)

// String implements fmt.Stringer for state logging.
func (s BatchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBackedUp:
		return "backed_up"
	case StateLoaded:
		return "loaded"
	case StateInserting:
		return "inserting"
	case StateSaved:
		return "saved"
	case StateBackupRemoved:
		return "backup_removed"
	case StateRestoringBackup:
		return "restoring_backup"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("BatchState(%d)", int(s))
}

// Batch commits a set of bills to one ledger file as a single
// transaction: one backup, one load, sequential insertion in
// chronological order, one save. Any failure restores the pre-batch
// file byte for byte, so partial batches are never observed.
type Batch struct {
	store    Store
	inserter Inserter
	log      zerolog.Logger
	state    BatchState
}

// NewBatch creates a batch transaction manager.
func NewBatch(store Store, inserter Inserter, log zerolog.Logger) *Batch {
	return &Batch{store: store, inserter: inserter, log: log, state: StateIdle}
}

// State returns the batch's current lifecycle state.
func (b *Batch) State() BatchState { return b.state }

// ProcessBatch inserts bills into the ledger file at path. Bills are
// sorted ascending by date first so within-sheet row ordering and
// cross-sheet chronology hold even for out-of-order input. The
// document is loaded exactly once and saved exactly once regardless of
// batch size.
func (b *Batch) ProcessBatch(path string, bills []bill.Record) error {
	b.state = StateIdle
	if len(bills) == 0 {
		b.log.Info().Msg("No bills to process")
		return nil
	}

	// Precondition check before the backup is taken: an invalid bill
	// must leave the file completely untouched.
	for i, rec := range bills {
		if len(rec.Items) == 0 {
			return fmt.Errorf("bill %d (%s on %s): %w", i+1, rec.Store, rec.Date, ErrEmptyBill)
		}
	}

	sorted := make([]bill.Record, len(bills))
	copy(sorted, bills)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	runID := uuid.NewString()
	log := b.log.With().Str("batch_id", runID).Str("ledger", path).Logger()

	backupPath, err := backup.Create(path)
	if err != nil {
		b.state = StateFailed
		return fmt.Errorf("batch %s: %w", runID, err)
	}
	b.setState(log, StateBackedUp)

	if err := b.runInserts(log, path, backupPath, sorted); err != nil {
		return fmt.Errorf("batch %s: %w", runID, err)
	}

	if err := backup.Remove(backupPath); err != nil {
		// The save already succeeded; a stale backup file is not worth
		// failing the batch over.
		log.Warn().Err(err).Str("backup", backupPath).Msg("Could not remove backup")
		return nil
	}
	b.setState(log, StateBackupRemoved)

	log.Info().Int("bills", len(sorted)).Msg("Batch committed")
	return nil
}

// runInserts performs load → insert* → save, restoring the backup on
// any failure.
func (b *Batch) runInserts(log zerolog.Logger, path, backupPath string, bills []bill.Record) error {
	d, err := b.store.Load(path)
	if err != nil {
		return b.rollback(log, path, backupPath, fmt.Errorf("load ledger: %w", err))
	}
	b.setState(log, StateLoaded)

	b.setState(log, StateInserting)
	for i, rec := range bills {
		log.Info().
			Int("bill", i+1).
			Int("of", len(bills)).
			Str("store", rec.Store).
			Msg("Processing bill")
		if err := b.inserter.InsertOne(d, rec); err != nil {
			return b.rollback(log, path, backupPath, err)
		}
	}

	if err := b.store.Save(d, path); err != nil {
		return b.rollback(log, path, backupPath, fmt.Errorf("save ledger: %w", err))
	}
	b.setState(log, StateSaved)
	return nil
}

// rollback restores the pre-batch file and reports the original error.
// The backup file is kept: it is removed only after a successful save.
func (b *Batch) rollback(log zerolog.Logger, path, backupPath string, cause error) error {
	b.setState(log, StateRestoringBackup)
	if restoreErr := backup.Restore(backupPath, path); restoreErr != nil {
		b.state = StateFailed
		return fmt.Errorf("%w (restore also failed: %v; backup kept at %s)", cause, restoreErr, backupPath)
	}
	log.Info().Str("backup", backupPath).Msg("Restored ledger from backup")
	b.state = StateFailed
	return cause
}

func (b *Batch) setState(log zerolog.Logger, s BatchState) {
	b.state = s
	log.Debug().Stringer("state", s).Msg("Batch state")
}
