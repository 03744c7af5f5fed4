package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"keepsake/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "keepsake", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.HistoryDB != filepath.Join(tempHome, ".local", "share", "keepsake", "history.db") {
		t.Fatalf("unexpected history db: %q", cfg.Paths.HistoryDB)
	}
	if !filepath.IsAbs(cfg.Paths.TempDir) {
		t.Fatalf("expected absolute temp dir, got %q", cfg.Paths.TempDir)
	}
	if cfg.Pipeline.Workers != 2 {
		t.Fatalf("expected 2 workers by default, got %d", cfg.Pipeline.Workers)
	}
	if cfg.InFlightLimit() != 4 {
		t.Fatalf("expected in-flight cap of 4, got %d", cfg.InFlightLimit())
	}
	if cfg.VolumeBytes() != 1000*1000*1000 {
		t.Fatalf("unexpected volume bytes: %d", cfg.VolumeBytes())
	}
	if cfg.Image.Quality != 21 {
		t.Fatalf("unexpected image quality: %d", cfg.Image.Quality)
	}
	if cfg.Video.Quality != 29.5 {
		t.Fatalf("unexpected video quality: %v", cfg.Video.Quality)
	}
	if cfg.Tools.SevenZip != "7z" {
		t.Fatalf("unexpected 7z binary: %q", cfg.Tools.SevenZip)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.HistoryDB)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "keepsake.toml")

	type payload struct {
		Image struct {
			Quality    int      `toml:"quality"`
			Extensions []string `toml:"extensions"`
		} `toml:"image"`
		Video struct {
			Encoder string `toml:"encoder"`
		} `toml:"video"`
		Pipeline struct {
			Workers     int `toml:"workers"`
			MaxInFlight int `toml:"max_in_flight"`
		} `toml:"pipeline"`
	}
	custom := payload{}
	custom.Image.Quality = 30
	custom.Image.Extensions = []string{"JPG", ".Jpeg", "jpg", "heic"}
	custom.Video.Encoder = " Drapto "
	custom.Pipeline.Workers = 3
	custom.Pipeline.MaxInFlight = 5
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Image.Quality != 30 {
		t.Fatalf("expected image quality 30, got %d", cfg.Image.Quality)
	}
	if diff := cmp.Diff([]string{".jpg", ".jpeg", ".heic"}, cfg.Image.Extensions); diff != "" {
		t.Fatalf("image extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.Video.Encoder != "drapto" {
		t.Fatalf("expected drapto encoder, got %q", cfg.Video.Encoder)
	}
	if cfg.InFlightLimit() != 5 {
		t.Fatalf("expected explicit in-flight cap 5, got %d", cfg.InFlightLimit())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "keepsake.toml")
	if err := os.WriteFile(configPath, []byte("[pipeline]\nworkerz = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[archive]") {
		t.Fatalf("sample config missing archive section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Archive.VolumeSizeMB != 1000 {
		t.Fatalf("expected sample volume size 1000, got %d", cfg.Archive.VolumeSizeMB)
	}

	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.LogDir, "keepsake") {
			t.Fatalf("expected log dir to contain keepsake, got %q", cfg.Paths.LogDir)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"image quality too high", func(c *config.Config) { c.Image.Quality = 64 }},
		{"image quality zero", func(c *config.Config) { c.Image.Quality = 0 }},
		{"unknown image codec", func(c *config.Config) { c.Image.Codec = "x265" }},
		{"unknown video encoder", func(c *config.Config) { c.Video.Encoder = "handbrake" }},
		{"ffmpeg quality out of range", func(c *config.Config) { c.Video.Quality = 60 }},
		{"volume size zero", func(c *config.Config) { c.Archive.VolumeSizeMB = 0 }},
		{"archive level too high", func(c *config.Config) { c.Archive.DefaultLevel = 10 }},
		{"no workers", func(c *config.Config) { c.Pipeline.Workers = 0 }},
		{"cap below workers", func(c *config.Config) { c.Pipeline.Workers = 4; c.Pipeline.MaxInFlight = 2 }},
		{"overlapping extensions", func(c *config.Config) { c.Video.Extensions = append(c.Video.Extensions, ".jpg") }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateAllowsDisabledConverters(t *testing.T) {
	cfg := config.Default()
	cfg.Image.Enabled = false
	cfg.Image.Quality = 0
	cfg.Video.Enabled = false
	cfg.Video.Encoder = "unused"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled converters to skip validation, got %v", err)
	}
}

func TestValidateNotificationsTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "ntfy.sh/backups"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for topic without scheme")
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/backups"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid topic, got %v", err)
	}
}

func TestValidateRejectsNegativeScratchAge(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.StaleScratchHours = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative stale_scratch_hours")
	}
}
