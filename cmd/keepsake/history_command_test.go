package main

import (
	"context"
	"testing"
	"time"

	"keepsake/internal/history"
	"keepsake/internal/testsupport"
)

func seedHistory(t *testing.T, env *cliTestEnv) {
	t.Helper()
	store := testsupport.MustOpenHistory(t, env.cfg)
	ctx := context.Background()
	started := time.Now().Add(-time.Hour)
	if err := store.BeginRun(ctx, history.Run{
		ID: "0c8e6a52-1111", Mode: "compress", Source: "/photos", Dest: "/backup", Workers: 2, StartedAt: started,
	}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	for _, entry := range []history.FileEntry{
		{RunID: "0c8e6a52-1111", Seq: 1, RelPath: "a.jpg", State: "processed", Kind: "image", Converted: true, SourceBytes: 4096, ArchiveBytes: 1024},
		{RunID: "0c8e6a52-1111", Seq: 2, RelPath: "b.txt", State: "failed", FailureKind: "archive", Error: "7z: exit status 2"},
	} {
		if err := store.RecordFile(ctx, entry); err != nil {
			t.Fatalf("RecordFile: %v", err)
		}
	}
	if err := store.FinishRun(ctx, history.Run{ID: "0c8e6a52-1111", Total: 2, Processed: 1, Failed: 1, FinishedAt: started.Add(time.Minute)}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
}

func TestHistoryListsRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	seedHistory(t, env)

	out, _, err := runCLI(t, []string{"history", "--limit", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "0c8e6a52")
	requireContains(t, out, "/photos")
	requireContains(t, out, "failures")
}

func TestHistoryShowsRunFilesByPrefix(t *testing.T) {
	env := setupCLITestEnv(t)
	seedHistory(t, env)

	out, _, err := runCLI(t, []string{"history", "0c8e"}, env.configPath)
	if err != nil {
		t.Fatalf("history run: %v", err)
	}
	requireContains(t, out, "0c8e6a52-1111")
	requireContains(t, out, "image (converted)")
	requireContains(t, out, "archive: 7z: exit status 2")

	out, _, err = runCLI(t, []string{"history", "--file", "b.txt"}, env.configPath)
	if err != nil {
		t.Fatalf("history --file: %v", err)
	}
	requireContains(t, out, "failed")
}

func TestHistoryUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"history", "deadbeef"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}
}
