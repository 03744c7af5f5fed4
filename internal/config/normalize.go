package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeImage()
	c.normalizeVideo()
	c.normalizeArchive()
	c.normalizePipeline()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = os.TempDir()
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.SevenZip = fallback(c.Tools.SevenZip, defaultSevenZip)
	c.Tools.AvifEnc = fallback(c.Tools.AvifEnc, defaultAvifEnc)
	c.Tools.Magick = fallback(c.Tools.Magick, defaultMagick)
	c.Tools.FFmpeg = fallback(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.ExifTool = fallback(c.Tools.ExifTool, defaultExifTool)
}

func (c *Config) normalizeImage() {
	c.Image.Codec = strings.ToLower(strings.TrimSpace(c.Image.Codec))
	if c.Image.Codec == "" {
		c.Image.Codec = defaultImageCodec
	}
	if c.Image.Threads <= 0 {
		c.Image.Threads = defaultImageThreads
	}
	c.Image.Extensions = normalizeExtensions(c.Image.Extensions)
}

func (c *Config) normalizeVideo() {
	c.Video.Encoder = strings.ToLower(strings.TrimSpace(c.Video.Encoder))
	if c.Video.Encoder == "" {
		c.Video.Encoder = defaultVideoEncoder
	}
	if c.Video.Threads <= 0 {
		c.Video.Threads = defaultVideoThreads
	}
	c.Video.Extensions = normalizeExtensions(c.Video.Extensions)
}

func (c *Config) normalizeArchive() {
	if c.Archive.Threads <= 0 {
		c.Archive.Threads = defaultArchiveThreads
	}
	c.Archive.FastExtensions = normalizeExtensions(c.Archive.FastExtensions)
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if c.Pipeline.MaxInFlight < 0 {
		c.Pipeline.MaxInFlight = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeExtensions lower-cases entries, adds the leading dot and drops
// duplicates while keeping the configured order.
func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, exists := seen[ext]; exists {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
