package avifenc

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"keepsake/internal/services"
)

// Option configures the avifenc client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Params are the encoder knobs. Quality is used for both the min and max
// quantizer so the output is encoded at a fixed quality.
type Params struct {
	Quality int
	Speed   int
	Codec   string
	Threads int
}

// Client wraps the avifenc encoder from libavif.
type Client struct {
	binary string
	exec   services.Executor
}

// New constructs an avifenc client.
func New(binary string, opts ...Option) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "avifenc"
	}
	c := &Client{binary: binary, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode writes an AVIF rendition of input to output.
func (c *Client) Encode(ctx context.Context, input, output string, p Params) error {
	if input == "" || output == "" {
		return errors.New("input and output paths required")
	}
	q := strconv.Itoa(p.Quality)
	args := []string{"--min", q, "--max", q, "-s", strconv.Itoa(p.Speed)}
	if p.Codec != "" {
		args = append(args, "-c", p.Codec)
	}
	if p.Threads > 0 {
		args = append(args, "-j", strconv.Itoa(p.Threads))
	}
	args = append(args, input, output)
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "avifenc", "encode", "", err)
	}
	return nil
}
