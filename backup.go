package texd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// BackupManager keeps a copy of an output file before texd overwrites it
type BackupManager struct {
	now func() time.Time
}

func NewBackupManager() *BackupManager {
	return &BackupManager{now: time.Now}
}

// CreateBackupOf copies path to path.<timestamp>.bak if path exists
//
// Returns the path to the backup file, or an empty string if there was nothing to back up
func (bm *BackupManager) CreateBackupOf(path string) (backupPath string, err error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("checking file existence: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("output path is a directory: %s", path)
	}

	backupPath = fmt.Sprintf("%s.%s.bak", path, bm.now().Format("20060102_150405"))
	if err := copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}

	slog.Debug("backed up existing output", "output", path, "backup", backupPath)
	return backupPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying file: %w", err)
	}
	return out.Close()
}
