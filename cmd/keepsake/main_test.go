package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"keepsake/internal/archive"
	"keepsake/internal/fingerprint"
	"keepsake/internal/testsupport"
)

func TestUnknownModePrintsUsage(t *testing.T) {
	env := setupCLITestEnv(t)
	_, stderr, err := runCLI(t, []string{"frobnicate"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	requireContains(t, err.Error(), "unknown mode")
	requireContains(t, stderr, "Usage:")
}

func TestCompressArgumentCount(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, args := range [][]string{
		{"compress", "only-source"},
		{"compress", "a", "b", "c", "d"},
		{"copy", "a"},
		{"copy", "a", "b", "c", "d"},
	} {
		_, stderr, err := runCLI(t, args, env.configPath)
		if err == nil {
			t.Fatalf("expected error for %v", args)
		}
		requireContains(t, stderr, "Usage:")
	}
}

func TestCompressFailsFastWithoutTools(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutConversion(), testsupport.WithStubbedBinaries("exiftool"))
	src := filepath.Join(env.baseDir, "src")
	testsupport.WriteFile(t, filepath.Join(src, "a.txt"), 10)

	_, _, err := runCLI(t, []string{"compress", src, filepath.Join(env.baseDir, "dest")}, env.configPath)
	if err == nil {
		t.Fatal("expected missing tool error")
	}
	requireContains(t, err.Error(), "missing required tools: 7z")
}

func TestCompressEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutConversion(), testsupport.WithStubScript("7z", stub7z))
	src := filepath.Join(env.baseDir, "src")
	dest := filepath.Join(env.baseDir, "dest")
	testsupport.WriteTree(t, src, map[string]int64{
		"notes.txt":         2048,
		"photos/IMG_01.jpg": 4096,
	})

	out, _, err := runCLI(t, []string{"compress", src, dest}, env.configPath)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	requireContains(t, out, "Processed")
	requireContains(t, out, "6.0 KiB")

	for _, rel := range []string{"notes.txt", "photos/IMG_01.jpg"} {
		if _, err := os.Stat(archive.CanonicalPath(dest, rel)); err != nil {
			t.Fatalf("expected archive for %s: %v", rel, err)
		}
		if _, ok, err := fingerprint.Read(fingerprint.SidecarPath(dest, rel)); !ok || err != nil {
			t.Fatalf("expected sidecar for %s: ok=%v err=%v", rel, ok, err)
		}
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one recorded run, got %d (%v)", len(runs), err)
	}
	if runs[0].Processed != 2 || !runs[0].Finished() {
		t.Fatalf("unexpected recorded run: %+v", runs[0])
	}

	out, _, err = runCLI(t, []string{"verify", dest, "--source", src}, env.configPath)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	requireContains(t, out, "Checked 2 archives")
	requireContains(t, out, "2 ok")
}

func TestCompressReportsFailedFiles(t *testing.T) {
	// A 7z that exits 0 without writing a volume fails every unit.
	env := setupCLITestEnv(t, testsupport.WithoutConversion(), testsupport.WithStubbedBinaries("7z"))
	src := filepath.Join(env.baseDir, "src")
	testsupport.WriteFile(t, filepath.Join(src, "a.txt"), 10)

	out, stderr, err := runCLI(t, []string{"compress", src, filepath.Join(env.baseDir, "dest")}, env.configPath)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	requireContains(t, out, "Failed (archive)")
	requireContains(t, stderr, "1 file(s) failed")
}

func TestCopyCountsFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "src")
	testsupport.WriteTree(t, src, map[string]int64{"a": 1, "b/c": 1, "b/d/e": 1})

	out, _, err := runCLI(t, []string{"copy", src, filepath.Join(env.baseDir, "dest")}, env.configPath)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	requireContains(t, out, "3 files found")

	out, _, err = runCLI(t, []string{"copy", src, filepath.Join(env.baseDir, "dest"), "secret"}, env.configPath)
	if err != nil {
		t.Fatalf("copy with password: %v", err)
	}
	requireContains(t, out, "3 files found")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "copy")
}
