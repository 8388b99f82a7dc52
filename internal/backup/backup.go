// Package backup provides the file-level safety net for batch
// insertions: a timestamped copy taken before any mutation, restored on
// failure, removed only after a successful save.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timestampLayout formats the backup name suffix, e.g. 20240305_142501.
const timestampLayout = "20060102_150405"

// Create copies path to a sibling backup file named
// "<name>_backup_<YYYYMMDD_HHMMSS>.<ext>" and returns the backup path.
func Create(path string) (string, error) {
	backupPath := backupName(path, time.Now())
	if err := copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	return backupPath, nil
}

// Restore copies the backup back over the target file.
func Restore(backupPath, targetPath string) error {
	if err := copyFile(backupPath, targetPath); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return nil
}

// Remove deletes a backup file. A missing file is not an error.
func Remove(backupPath string) error {
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove backup: %w", err)
	}
	return nil
}

// backupName derives the backup path for a file at the given time.
func backupName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_backup_" + now.Format(timestampLayout) + ext
}

// copyFile copies src to dst, preserving the source's permission bits.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
