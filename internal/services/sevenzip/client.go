package sevenzip

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"keepsake/internal/services"
)

// Option configures the 7z client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// AddOptions controls one archive invocation.
type AddOptions struct {
	Level    int
	Threads  int
	VolumeMB int
	// Password enables 7z's AES encryption; empty writes a plaintext archive.
	Password string
}

// Client wraps the 7z command-line archiver.
type Client struct {
	binary string
	exec   services.Executor
}

// New constructs a 7z client.
func New(binary string, opts ...Option) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "7z"
	}
	c := &Client{binary: binary, exec: services.CommandExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add archives input into archivePath. With a volume size set 7z writes
// archivePath.001, archivePath.002, ... instead of archivePath itself.
func (c *Client) Add(ctx context.Context, archivePath, input string, opts AddOptions) error {
	if archivePath == "" || input == "" {
		return errors.New("archive path and input required")
	}
	args := AddArgs(archivePath, input, opts)
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "7z", "add", "", redact(err, opts.Password))
	}
	return nil
}

// Test runs 7z's integrity check over an archive (the first volume for a
// multi-volume set).
func (c *Client) Test(ctx context.Context, archivePath, password string) error {
	args := []string{"t", "-bso0"}
	if password != "" {
		args = append(args, "-p"+password)
	}
	args = append(args, archivePath)
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "7z", "test", "", redact(err, password))
	}
	return nil
}

// AddArgs builds the argument list for an add invocation.
func AddArgs(archivePath, input string, opts AddOptions) []string {
	args := []string{"a", "-t7z", "-mx" + strconv.Itoa(opts.Level)}
	if opts.Threads > 0 {
		args = append(args, "-mmt="+strconv.Itoa(opts.Threads))
	}
	args = append(args, "-bso0")
	if opts.VolumeMB > 0 {
		args = append(args, "-v"+strconv.Itoa(opts.VolumeMB)+"m")
	}
	if opts.Password != "" {
		args = append(args, "-p"+opts.Password)
	}
	return append(args, archivePath, input)
}

// redact keeps the password out of error strings that echo command output.
func redact(err error, password string) error {
	if err == nil || password == "" || !strings.Contains(err.Error(), password) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), password, "***"))
}
