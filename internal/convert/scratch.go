package convert

import (
	"fmt"
	"os"

	"keepsake/internal/staging"
)

// Scratch is a private working directory for one unit's intermediates.
type Scratch struct {
	Dir string
}

// NewScratch creates a keepsake-* directory under tempDir.
func NewScratch(tempDir string) (*Scratch, error) {
	dir, err := os.MkdirTemp(tempDir, staging.Pattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

// Close removes the directory and everything in it. Safe to call more than once.
func (s *Scratch) Close() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	err := os.RemoveAll(s.Dir)
	s.Dir = ""
	return err
}
