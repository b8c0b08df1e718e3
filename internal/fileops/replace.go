package fileops

import (
	"errors"
	"fmt"
	"os"
)

var (
	statFile   = os.Stat
	renameFile = os.Rename
	removeFile = os.Remove
)

const backupSuffix = ".songdl.bak"

// ReplaceFile moves src over dst. A plain rename is tried first. Where the
// platform refuses to rename onto an existing file, dst is parked under a
// backup name and put back if the move still fails.
func ReplaceFile(src string, dst string) error {
	if src == "" || dst == "" {
		return errors.New("replace: empty path")
	}
	if src == dst {
		return fmt.Errorf("replace: source and destination are both %s", src)
	}

	info, err := statFile(src)
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("replace: %s is a directory", src)
	}

	renameErr := renameFile(src, dst)
	if renameErr == nil {
		return nil
	}
	if _, err := statFile(dst); err != nil {
		return fmt.Errorf("replace %s: %w", dst, renameErr)
	}
	return swapWithBackup(src, dst)
}

func swapWithBackup(src string, dst string) error {
	backup := dst + backupSuffix
	if err := removeFile(backup); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale backup %s: %w", backup, err)
	}
	if err := renameFile(dst, backup); err != nil {
		return fmt.Errorf("move %s aside: %w", dst, err)
	}

	if err := renameFile(src, dst); err != nil {
		if restoreErr := renameFile(backup, dst); restoreErr != nil {
			return fmt.Errorf("replace %s failed (%v) and restore failed: %w", dst, err, restoreErr)
		}
		return fmt.Errorf("replace %s: %w", dst, err)
	}

	if err := removeFile(backup); err != nil {
		return fmt.Errorf("remove backup %s: %w", backup, err)
	}
	return nil
}
