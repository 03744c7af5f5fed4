package magick

import (
	"context"
	"errors"
	"strings"

	"keepsake/internal/services"
)

// Option configures the ImageMagick client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the ImageMagick 7 `magick` command.
type Client struct {
	binary string
	exec   services.Executor
}

// New constructs a magick client.
func New(binary string, opts ...Option) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "magick"
	}
	c := &Client{binary: binary, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AutoOrient bakes the EXIF orientation into the pixels of input and writes
// the result to output. avifenc ignores the orientation tag, so images are
// rotated before encoding.
func (c *Client) AutoOrient(ctx context.Context, input, output string) error {
	if input == "" || output == "" {
		return errors.New("input and output paths required")
	}
	if err := c.exec.Run(ctx, c.binary, []string{input, "-auto-orient", output}, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "magick", "auto-orient", "", err)
	}
	return nil
}
