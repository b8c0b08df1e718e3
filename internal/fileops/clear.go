package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// RemoveFiles deletes every regular file directly inside dir and returns how
// many were removed. Symlinks to files are removed as links; subdirectories
// and links to them are not touched. A file that cannot be removed does not
// stop the others; all failures are joined in the error.
func RemoveFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", dir, err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !isFile(path, entry) {
			continue
		}
		if err := removeFile(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func isFile(path string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
