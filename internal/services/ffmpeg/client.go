package ffmpeg

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"keepsake/internal/services"
)

// Option configures the ffmpeg client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithProgress registers a callback for ffmpeg's -stats lines.
func WithProgress(fn func(string)) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// Params are the encoder knobs for the NVENC HEVC transcode.
type Params struct {
	Quality float64
	Threads int
}

// Client wraps ffmpeg for HEVC transcodes on NVIDIA hardware.
type Client struct {
	binary   string
	exec     services.Executor
	progress func(string)
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	c := &Client{binary: binary, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodeHEVC transcodes the video stream of input with hevc_nvenc at a
// constant quality and copies the audio streams unchanged.
func (c *Client) EncodeHEVC(ctx context.Context, input, output string, p Params) error {
	if input == "" || output == "" {
		return errors.New("input and output paths required")
	}
	if err := c.exec.Run(ctx, c.binary, HEVCArgs(input, output, p), c.progress); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "encode", "", err)
	}
	return nil
}

// HEVCArgs builds the argument list for EncodeHEVC.
func HEVCArgs(input, output string, p Params) []string {
	args := []string{
		"-hide_banner", "-loglevel", "warning", "-stats", "-y",
		"-i", input,
		"-c:v", "hevc_nvenc",
		"-preset", "p7",
		"-tune", "hq",
		"-profile:v", "main",
		"-b_ref_mode", "middle",
		"-nonref_p", "1",
		"-tier", "high",
		"-rc-lookahead", "32",
		"-rc", "vbr",
		"-bf", "2",
		"-cq", strconv.FormatFloat(p.Quality, 'f', -1, 64),
	}
	if p.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(p.Threads))
	}
	return append(args, "-c:a", "copy", output)
}
