package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains scratch, log and state locations.
type Paths struct {
	TempDir   string `toml:"temp_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Tools names the external binaries keepsake shells out to. Values are
// resolved through PATH unless absolute.
type Tools struct {
	SevenZip string `toml:"sevenzip"`
	AvifEnc  string `toml:"avifenc"`
	Magick   string `toml:"magick"`
	FFmpeg   string `toml:"ffmpeg"`
	ExifTool string `toml:"exiftool"`
}

// Image contains configuration for the image transcode step.
type Image struct {
	Enabled bool `toml:"enabled"`
	// Quality is the avifenc quantizer, 1 (best) ... 63 (smallest).
	Quality    int      `toml:"quality"`
	Speed      int      `toml:"speed"`
	Codec      string   `toml:"codec"`
	Threads    int      `toml:"threads"`
	Extensions []string `toml:"extensions"`
}

// Video contains configuration for the video transcode step.
type Video struct {
	Enabled bool `toml:"enabled"`
	// Encoder selects the backend: "ffmpeg" (hevc_nvenc) or "drapto".
	Encoder string `toml:"encoder"`
	// Quality is the constant-quality value passed as -cq to ffmpeg.
	// Drapto picks its own quality and ignores it.
	Quality    float64  `toml:"quality"`
	Threads    int      `toml:"threads"`
	Extensions []string `toml:"extensions"`
}

// Archive contains configuration for the 7z archive step.
type Archive struct {
	VolumeSizeMB   int      `toml:"volume_size_mb"`
	Threads        int      `toml:"threads"`
	FastLevel      int      `toml:"fast_level"`
	DefaultLevel   int      `toml:"default_level"`
	FastExtensions []string `toml:"fast_extensions"`
}

// Pipeline contains worker pool sizing.
type Pipeline struct {
	Workers int `toml:"workers"`
	// MaxInFlight bounds submitted-but-uncollected units. Zero means
	// twice the worker count.
	MaxInFlight int `toml:"max_in_flight"`
	// StaleScratchHours removes keepsake-* scratch directories older than
	// this many hours before a run. Zero disables the sweep.
	StaleScratchHours int `toml:"stale_scratch_hours"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains configuration for ntfy run notifications.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-backups.
	// Empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	// OnlyOnFailure suppresses notifications for clean runs.
	OnlyOnFailure bool `toml:"only_on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for keepsake.
//
// Configuration sections by subsystem:
//   - Paths: scratch directory, log directory, history database
//   - Tools: external binaries (7z, avifenc, magick, ffmpeg, exiftool)
//   - Image: AVIF transcode of JPEG sources
//   - Video: HEVC/AV1 transcode of video sources
//   - Archive: 7z volume size, threads and compression levels
//   - Pipeline: worker pool size and in-flight cap
//   - History: SQLite run history
//   - Notifications: ntfy topic for run summaries
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Image         Image         `toml:"image"`
	Video         Video         `toml:"video"`
	Archive       Archive       `toml:"archive"`
	Pipeline      Pipeline      `toml:"pipeline"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("keepsake.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.TempDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && strings.TrimSpace(c.Paths.HistoryDB) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Paths.HistoryDB), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// InFlightLimit returns the effective cap on outstanding work units.
func (c *Config) InFlightLimit() int {
	if c.Pipeline.MaxInFlight > 0 {
		return c.Pipeline.MaxInFlight
	}
	return 2 * c.Pipeline.Workers
}

// VolumeBytes returns the archive volume size in bytes.
func (c *Config) VolumeBytes() int64 {
	return int64(c.Archive.VolumeSizeMB) * 1000 * 1000
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
