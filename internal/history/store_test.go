package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	_ "modernc.org/sqlite"

	"keepsake/internal/history"
	"keepsake/internal/testsupport"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	return testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
}

func TestOpenCreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if reopened.Path() != path {
		t.Fatalf("Path() = %q, want %q", reopened.Path(), path)
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := store.BeginRun(ctx, history.Run{
		ID: "run-1", Mode: "compress", Source: "/src", Dest: "/dst", Workers: 2, StartedAt: started,
	}); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil || run == nil {
		t.Fatalf("GetRun = %v, %v", run, err)
	}
	if run.Finished() {
		t.Fatal("run should not be finished before FinishRun")
	}

	finished := started.Add(90 * time.Second)
	if err := store.FinishRun(ctx, history.Run{
		ID:                  "run-1",
		FinishedAt:          finished,
		Total:               3,
		Processed:           1,
		Skipped:             1,
		Failed:              1,
		Converted:           1,
		ConversionFallbacks: 0,
		SourceBytes:         5 << 20,
		ArchiveBytes:        1 << 20,
		ComputeTime:         4 * time.Second,
		WallTime:            3 * time.Second,
		Interrupted:         true,
	}); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	want := history.Run{
		ID: "run-1", Mode: "compress", Source: "/src", Dest: "/dst", Workers: 2,
		StartedAt: started, FinishedAt: finished,
		Total: 3, Processed: 1, Skipped: 1, Failed: 1, Converted: 1,
		SourceBytes: 5 << 20, ArchiveBytes: 1 << 20,
		ComputeTime: 4 * time.Second, WallTime: 3 * time.Second, Interrupted: true,
	}
	if diff := cmp.Diff(want, *got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	store := openStore(t)
	if err := store.FinishRun(context.Background(), history.Run{ID: "missing"}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestListRunsNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.BeginRun(ctx, history.Run{
			ID: id, Mode: "compress", Source: "/s", Dest: "/d", StartedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	if diff := cmp.Diff([]string{"c", "b"}, ids); diff != "" {
		t.Fatalf("run order mismatch (-want +got):\n%s", diff)
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns(0) failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestGetRunByPrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, id := range []string{"4f1c0000-aaaa", "4f2d0000-bbbb"} {
		if err := store.BeginRun(ctx, history.Run{ID: id, Mode: "compress", Source: "/s", Dest: "/d"}); err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
	}

	run, err := store.GetRun(ctx, "4f1c")
	if err != nil || run == nil || run.ID != "4f1c0000-aaaa" {
		t.Fatalf("GetRun(prefix) = %#v, %v", run, err)
	}
	if _, err := store.GetRun(ctx, "4f"); !errors.Is(err, history.ErrAmbiguousRun) {
		t.Fatalf("expected ErrAmbiguousRun, got %v", err)
	}
	missing, err := store.GetRun(ctx, "ffff")
	if err != nil || missing != nil {
		t.Fatalf("expected nil run for unknown prefix, got %#v, %v", missing, err)
	}
}

func TestRecordFileNormalizesPaths(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.BeginRun(ctx, history.Run{ID: "run-1", Mode: "compress", Source: "/s", Dest: "/d"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	// "e" followed by a combining acute accent, as macOS filesystems store it.
	decomposed := "photos/cafe\u0301.jpg"
	entries := []history.FileEntry{
		{RunID: "run-1", Seq: 2, RelPath: "notes.txt", State: "failed", FailureKind: "archive", Error: "7z: exit 2"},
		{RunID: "run-1", Seq: 1, RelPath: decomposed, State: "processed", Kind: "image", Converted: true,
			SourceBytes: 100, ArchiveBytes: 40, Elapsed: 1500 * time.Millisecond, Volumes: 1},
	}
	for _, entry := range entries {
		if err := store.RecordFile(ctx, entry); err != nil {
			t.Fatalf("RecordFile: %v", err)
		}
	}

	got, err := store.RunFiles(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunFiles failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Seq != 1 || got[0].RelPath != "photos/caf\u00e9.jpg" {
		t.Fatalf("unexpected first entry: %#v", got[0])
	}
	if got[1].FailureKind != "archive" || got[1].Error != "7z: exit 2" {
		t.Fatalf("unexpected failed entry: %#v", got[1])
	}

	byPath, err := store.FileHistory(ctx, decomposed)
	if err != nil {
		t.Fatalf("FileHistory failed: %v", err)
	}
	if len(byPath) != 1 || byPath[0].Elapsed != 1500*time.Millisecond || !byPath[0].Converted {
		t.Fatalf("unexpected file history: %#v", byPath)
	}
}

func TestRecordFileRequiresKnownRun(t *testing.T) {
	store := openStore(t)
	err := store.RecordFile(context.Background(), history.FileEntry{RunID: "nope", RelPath: "a", State: "processed"})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown run")
	}
}
