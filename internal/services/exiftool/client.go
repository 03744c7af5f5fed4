package exiftool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"keepsake/internal/services"
)

// updatedMarker is printed by exiftool when the destination was rewritten.
const updatedMarker = "1 image files updated"

// captureLayout matches the -d format passed when reading DateTimeOriginal.
const captureLayout = "2006.01.02 15:04:05"

// ErrNotUpdated reports that exiftool ran but did not rewrite the destination.
var ErrNotUpdated = errors.New("exiftool did not update the file")

// Option configures the exiftool client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps exiftool.
type Client struct {
	binary string
	exec   services.Executor
}

// New constructs an exiftool client.
func New(binary string, opts ...Option) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "exiftool"
	}
	c := &Client{binary: binary, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CopyTags copies every writable tag from src into dst in place.
func (c *Client) CopyTags(ctx context.Context, src, dst string) error {
	if src == "" || dst == "" {
		return errors.New("source and destination paths required")
	}
	var output []string
	args := []string{"-overwrite_original", "-TagsFromFile", src, dst}
	if err := c.exec.Run(ctx, c.binary, args, func(line string) {
		output = append(output, line)
	}); err != nil {
		return services.Wrap(services.ErrExternalTool, "exiftool", "copy tags", "", err)
	}
	for _, line := range output {
		if strings.Contains(line, updatedMarker) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotUpdated, strings.Join(output, " | "))
}

// CaptureTime reads the EXIF DateTimeOriginal of path in local time. ok is
// false when the file carries no such tag, which exiftool prints as "-".
func (c *Client) CaptureTime(ctx context.Context, path string) (ts time.Time, ok bool, err error) {
	if path == "" {
		return time.Time{}, false, errors.New("path required")
	}
	var value string
	args := []string{"-T", "-DateTimeOriginal", "-d", "%Y.%m.%d %H:%M:%S", path}
	if err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			value = trimmed
		}
	}); err != nil {
		return time.Time{}, false, services.Wrap(services.ErrExternalTool, "exiftool", "read capture time", "", err)
	}
	if value == "" || value == "-" {
		return time.Time{}, false, nil
	}
	ts, err = time.ParseInLocation(captureLayout, value, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse DateTimeOriginal %q: %w", value, err)
	}
	return ts, true, nil
}
