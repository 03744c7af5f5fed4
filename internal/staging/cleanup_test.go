package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"keepsake/internal/logging"
)

func mkdirAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatalf("set time: %v", err)
		}
	}
	return path
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldScratchOnly(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir := mkdirAged(t, tmpDir, Prefix+"old", 2*time.Hour)
	recentDir := mkdirAged(t, tmpDir, Prefix+"recent", 0)
	foreignDir := mkdirAged(t, tmpDir, "other-tool", 2*time.Hour)

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d: %v", len(result.Removed), result.Removed)
	}
	if result.Removed[0] != oldDir {
		t.Errorf("expected %s to be removed, got %s", oldDir, result.Removed[0])
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old scratch directory should have been removed")
	}
	for _, keep := range []string{recentDir, foreignDir} {
		if _, err := os.Stat(keep); err != nil {
			t.Errorf("%s should still exist", keep)
		}
	}
}

func TestCleanStaleZeroAgeDisabled(t *testing.T) {
	tmpDir := t.TempDir()
	dir := mkdirAged(t, tmpDir, Prefix+"old", 48*time.Hour)

	result := CleanStale(context.Background(), tmpDir, 0, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", result.Removed)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatal("directory should still exist")
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()

	oldFile := filepath.Join(tmpDir, Prefix+"file.txt")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("file should not have been removed")
	}
}

func TestCleanStaleStopsOnCancelledContext(t *testing.T) {
	tmpDir := t.TempDir()
	mkdirAged(t, tmpDir, Prefix+"old", 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := CleanStale(ctx, tmpDir, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected no removals after cancel, got %v", result.Removed)
	}
}

func TestListDirectoriesInvalidPaths(t *testing.T) {
	for _, path := range []string{"", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(path)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", path, err)
		}
		if dirs != nil {
			t.Errorf("expected nil for path %q, got %v", path, dirs)
		}
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	dir1 := mkdirAged(t, tmpDir, Prefix+"1", 0)
	dir2 := mkdirAged(t, tmpDir, Prefix+"2", 0)
	mkdirAged(t, tmpDir, "unrelated", 0)

	if err := os.WriteFile(filepath.Join(tmpDir, "not-a-dir.txt"), []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir1, "data.bin"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("create inner file: %v", err)
	}

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 directories, got %d", len(dirs))
	}

	sizes := map[string]int64{}
	for _, d := range dirs {
		sizes[d.Path] = d.Size
		if d.ModTime.IsZero() {
			t.Errorf("%s: ModTime should not be zero", d.Name)
		}
	}
	if sizes[dir1] != 5 {
		t.Errorf("dir1 size = %d, want 5", sizes[dir1])
	}
	if size, ok := sizes[dir2]; !ok || size != 0 {
		t.Errorf("dir2 size = %d (present %v), want 0", size, ok)
	}
}
