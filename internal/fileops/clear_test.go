package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveFilesSkipsSubdirectories(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"a.mp3", "b.webm"} {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	nested := filepath.Join(tmp, "keep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "c.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write nested file: %v", err)
	}

	removed, err := RemoveFiles(tmp)
	if err != nil {
		t.Fatalf("remove files: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed files, got %d", removed)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "keep" {
		t.Fatalf("expected only the subdirectory to remain, got %v", entries)
	}
	if _, err := os.Stat(filepath.Join(nested, "c.mp3")); err != nil {
		t.Fatalf("expected nested file to survive: %v", err)
	}
}

func TestRemoveFilesContinuesPastFailures(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3"} {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	origRemove := removeFile
	removeFile = func(path string) error {
		if filepath.Base(path) == "a.mp3" {
			return errors.New("injected remove failure")
		}
		return os.Remove(path)
	}
	t.Cleanup(func() {
		removeFile = origRemove
	})

	removed, err := RemoveFiles(tmp)
	if err == nil {
		t.Fatalf("expected joined removal error")
	}
	if removed != 1 {
		t.Fatalf("expected the other file to be removed, got %d", removed)
	}
	if _, statErr := os.Stat(filepath.Join(tmp, "b.mp3")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected b.mp3 to be removed, stat err: %v", statErr)
	}
}

func TestRemoveFilesFollowsSymlinksToFiles(t *testing.T) {
	tmp := t.TempDir()
	elsewhere := t.TempDir()
	target := filepath.Join(elsewhere, "song.mp3")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(tmp, "link.mp3")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(elsewhere, filepath.Join(tmp, "dirlink")); err != nil {
		t.Fatalf("symlink dir: %v", err)
	}

	removed, err := RemoveFiles(tmp)
	if err != nil {
		t.Fatalf("remove files: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected the file link to be removed, got %d", removed)
	}
	if _, err := os.Lstat(filepath.Join(tmp, "link.mp3")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file link to be gone, lstat err: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(tmp, "dirlink")); err != nil {
		t.Fatalf("expected directory link to remain: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected link target to survive: %v", err)
	}
}
