package backup

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestBackupName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 25, 1, 0, time.UTC)

	tests := []struct {
		path string
		want string
	}{
		{"/data/ledger.xlsx", "/data/ledger_backup_20240305_142501.xlsx"},
		{"ledger.ods", "ledger_backup_20240305_142501.ods"},
		{"/data/my.ledger.xlsx", "/data/my.ledger_backup_20240305_142501.xlsx"},
	}
	for _, tt := range tests {
		if got := backupName(tt.path, now); got != tt.want {
			t.Errorf("backupName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCreateRestoreRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.xlsx")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}

	backupPath, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	namePattern := regexp.MustCompile(`^ledger_backup_\d{8}_\d{6}\.xlsx$`)
	if base := filepath.Base(backupPath); !namePattern.MatchString(base) {
		t.Errorf("backup name %q does not match <name>_backup_<timestamp>.<ext>", base)
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("backup content = %q, want %q", data, "original")
	}

	// Corrupt the original, then restore.
	if err := os.WriteFile(path, []byte("broken"), 0o644); err != nil {
		t.Fatalf("corrupt ledger: %v", err)
	}
	if err := Restore(backupPath, path); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("restored content = %q, want %q", data, "original")
	}

	if err := Remove(backupPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(backupPath); !os.IsNotExist(err) {
		t.Errorf("backup still exists after Remove")
	}
}

func TestCreateMissingSource(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Error("expected error for a missing source file")
	}
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	if err := Remove(filepath.Join(t.TempDir(), "gone.xlsx")); err != nil {
		t.Errorf("Remove on a missing file = %v, want nil", err)
	}
}
