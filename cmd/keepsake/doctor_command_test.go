package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"keepsake/internal/staging"
	"keepsake/internal/testsupport"
)

func TestDoctorAllToolsPresent(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "All required tools found")
	requireContains(t, out, "[OK]")
}

func TestDoctorReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries("7z", "magick", "ffmpeg"))
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	requireContains(t, out, `[ERROR] binary "avifenc" not found`)
	requireContains(t, out, "(optional)")
	requireContains(t, out, "1 required tool(s) missing")
}

func TestDoctorReportsLeftoverScratch(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	if err := os.MkdirAll(filepath.Join(env.cfg.Paths.TempDir, staging.Prefix+"abc"), 0o755); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "1 leftover")
	requireContains(t, out, "Notifications")
}
