package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateImage(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateImage() error {
	if !c.Image.Enabled {
		return nil
	}
	if c.Image.Quality < 1 || c.Image.Quality > maxImageQuality {
		return fmt.Errorf("image.quality must be between 1 and %d", maxImageQuality)
	}
	if c.Image.Speed < 0 || c.Image.Speed > maxImageSpeed {
		return fmt.Errorf("image.speed must be between 0 and %d", maxImageSpeed)
	}
	switch c.Image.Codec {
	case imageCodecAOM, imageCodecRav1e:
	default:
		return fmt.Errorf("image.codec must be %q or %q, got %q", imageCodecAOM, imageCodecRav1e, c.Image.Codec)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if !c.Video.Enabled {
		return nil
	}
	switch c.Video.Encoder {
	case videoEncoderFFmpeg:
		if c.Video.Quality <= 0 || c.Video.Quality > 51 {
			return errors.New("video.quality must be between 0 and 51 for the ffmpeg encoder")
		}
	case videoEncoderDrapto:
	default:
		return fmt.Errorf("video.encoder must be %q or %q, got %q", videoEncoderFFmpeg, videoEncoderDrapto, c.Video.Encoder)
	}
	for _, ext := range c.Video.Extensions {
		for _, img := range c.Image.Extensions {
			if c.Image.Enabled && ext == img {
				return fmt.Errorf("extension %q is registered for both image and video conversion", ext)
			}
		}
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.VolumeSizeMB <= 0 {
		return errors.New("archive.volume_size_mb must be positive")
	}
	if c.Archive.FastLevel < 0 || c.Archive.FastLevel > maxArchiveLevel {
		return fmt.Errorf("archive.fast_level must be between 0 and %d", maxArchiveLevel)
	}
	if c.Archive.DefaultLevel < 0 || c.Archive.DefaultLevel > maxArchiveLevel {
		return fmt.Errorf("archive.default_level must be between 0 and %d", maxArchiveLevel)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > maxPipelineWorkersLimit {
		return fmt.Errorf("pipeline.workers must be between 1 and %d", maxPipelineWorkersLimit)
	}
	if c.Pipeline.MaxInFlight != 0 && c.Pipeline.MaxInFlight < c.Pipeline.Workers {
		return errors.New("pipeline.max_in_flight must be 0 (auto) or at least pipeline.workers")
	}
	if c.Pipeline.StaleScratchHours < 0 {
		return errors.New("pipeline.stale_scratch_hours must be 0 (disabled) or positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.TrimSpace(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
