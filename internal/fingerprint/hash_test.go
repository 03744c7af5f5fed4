package fingerprint_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"keepsake/internal/fingerprint"
	"keepsake/internal/services"
)

func TestHashFileMatchesSHA256(t *testing.T) {
	data := bytes.Repeat([]byte("keepsake"), fingerprint.BlockSize/4)
	path := filepath.Join(t.TempDir(), "big.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := fingerprint.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile returned error: %v", err)
	}
	sum := sha256.Sum256(data)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("HashFile = %s, want %s", got, want)
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestHashFilesStreamsInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.7z.001")
	second := filepath.Join(dir, "a.7z.002")
	if err := os.WriteFile(first, []byte("hello "), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := fingerprint.HashFiles(first, second)
	if err != nil {
		t.Fatalf("HashFiles returned error: %v", err)
	}
	sum := sha256.Sum256([]byte("hello world"))
	if got != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected concatenated hash %s", got)
	}
}

func TestHashFileMissing(t *testing.T) {
	_, err := fingerprint.HashFile(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, services.ErrHash) {
		t.Fatalf("expected ErrHash, got %v", err)
	}
}

func TestStatTimesReflectsChtimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	before, err := fingerprint.StatTimes(path)
	if err != nil {
		t.Fatalf("StatTimes returned error: %v", err)
	}

	older := before.Modify.Add(-48 * time.Hour)
	if err := os.Chtimes(path, older, older); err != nil {
		t.Fatal(err)
	}
	after, err := fingerprint.StatTimes(path)
	if err != nil {
		t.Fatalf("StatTimes returned error: %v", err)
	}
	if after.MTimeString() == before.MTimeString() {
		t.Fatal("expected modification time to change")
	}
	if _, err := fingerprint.StatTimes(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, services.ErrHash) {
		t.Fatalf("expected ErrHash for missing file, got %v", err)
	}
}
