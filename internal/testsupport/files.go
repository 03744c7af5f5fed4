package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile fills the target path with size bytes of a repeating pattern
// seeded by the file name, so equal-sized files still hash differently.
// A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	seed := byte(len(filepath.Base(path)))
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = seed + byte(i%251)
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteTree creates every file in sizes (relative path to size) under root.
func WriteTree(t testing.TB, root string, sizes map[string]int64) {
	t.Helper()
	for rel, size := range sizes {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), size)
	}
}

// Touch moves the modification time of path by offset from now, so change
// detection sees new timestamps even on coarse-grained filesystems.
func Touch(t testing.TB, path string, offset time.Duration) {
	t.Helper()
	when := time.Now().Add(offset)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
