package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"tg-channel-reader/internal/infra/storage"
)

func TestAtomicWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "file.session")

	if err := storage.AtomicWriteFile(path, []byte("first")); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	if err := storage.AtomicWriteFile(path, []byte("second")); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(data, []byte("second")) {
		t.Fatalf("content = %q, want %q", data, "second")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != storage.DefaultFilePerm {
		t.Fatalf("perm = %o, want %o", perm, storage.DefaultFilePerm)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "atomic-*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestEnsureDirWithoutDirectory(t *testing.T) {
	t.Parallel()

	if err := storage.EnsureDir("file.session"); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
}
