package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates the target path with a small placeholder payload,
// creating parent directories as needed.
func WriteFile(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTree lays out a fixture directory: every entry is a path relative
// to root, created as an empty-ish file.
func WriteTree(t testing.TB, root string, entries []string) {
	t.Helper()

	for _, entry := range entries {
		WriteFile(t, filepath.Join(root, entry))
	}
}
