package drapto

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"keepsake/internal/services"
)

// encodeFunc runs one Drapto encode of inputPath into outputDir.
type encodeFunc func(ctx context.Context, inputPath, outputDir string) error

// Library encodes videos to AV1 through the Drapto Go library. Drapto
// chooses quality from the source resolution, so no quality knob is exposed.
type Library struct {
	encode encodeFunc
}

// Option configures the Library.
type Option func(*Library)

// WithEncodeFunc replaces the Drapto call (primarily for tests).
func WithEncodeFunc(fn func(ctx context.Context, inputPath, outputDir string) error) Option {
	return func(l *Library) {
		if fn != nil {
			l.encode = fn
		}
	}
}

// NewLibrary constructs a Library client.
func NewLibrary(opts ...Option) *Library {
	l := &Library{encode: libraryEncode}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Encode transcodes inputPath into outputDir and returns the path of the
// produced <stem>.mkv.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string) (string, error) {
	if inputPath == "" {
		return "", errors.New("input path required")
	}
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return "", errors.New("output directory required")
	}

	if err := l.encode(ctx, inputPath, outputDir); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "drapto", "encode", "", err)
	}

	outputPath := OutputPath(inputPath, outputDir)
	if _, err := os.Stat(outputPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "drapto", "encode", "no output file", err)
	}
	return outputPath, nil
}

// OutputPath returns where Drapto writes the encode of inputPath.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(outputDir, stem+".mkv")
}

func libraryEncode(ctx context.Context, inputPath, outputDir string) error {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	// A nil reporter keeps Drapto quiet; keepsake reports per-file progress itself.
	_, err = encoder.EncodeWithReporter(ctx, inputPath, outputDir, nil)
	return err
}
