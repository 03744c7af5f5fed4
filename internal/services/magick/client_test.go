package magick_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"keepsake/internal/services"
	"keepsake/internal/services/magick"
)

type stubExecutor struct {
	err    error
	binary string
	args   []string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	s.binary = binary
	s.args = append([]string(nil), args...)
	return s.err
}

func TestAutoOrientArguments(t *testing.T) {
	exec := &stubExecutor{}
	client := magick.New("", magick.WithExecutor(exec))
	if err := client.AutoOrient(context.Background(), "a.jpg", "/scratch/a.jpg"); err != nil {
		t.Fatalf("AutoOrient returned error: %v", err)
	}
	if exec.binary != "magick" {
		t.Fatalf("unexpected binary %q", exec.binary)
	}
	if diff := cmp.Diff([]string{"a.jpg", "-auto-orient", "/scratch/a.jpg"}, exec.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoOrientWrapsFailure(t *testing.T) {
	client := magick.New("magick", magick.WithExecutor(&stubExecutor{err: errors.New("no decode delegate")}))
	if err := client.AutoOrient(context.Background(), "a.jpg", "b.jpg"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
