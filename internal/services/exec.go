package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Executor abstracts command execution for testability. onOutput receives
// every stdout and stderr line; it may be nil.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// tailLines is how much trailing output a failed command carries in its error.
const tailLines = 5

// CommandExecutor runs binaries with os/exec.
type CommandExecutor struct{}

func (CommandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		tail    []string
		scanErr error
		once    sync.Once
	)

	forward := func(line string) {
		mu.Lock()
		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[1:]
		}
		if onOutput != nil {
			onOutput(line)
		}
		mu.Unlock()
	}

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if len(tail) > 0 {
			return fmt.Errorf("%s: %w: %s", binary, err, strings.Join(tail, " | "))
		}
		return fmt.Errorf("%s: %w", binary, err)
	}
	return nil
}

var _ Executor = CommandExecutor{}
