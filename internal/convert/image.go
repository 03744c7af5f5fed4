package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"keepsake/internal/services/avifenc"
)

// Orienter rotates pixels according to the stored orientation tag.
type Orienter interface {
	AutoOrient(ctx context.Context, input, output string) error
}

// AVIFEncoder encodes an image to AVIF.
type AVIFEncoder interface {
	Encode(ctx context.Context, input, output string, p avifenc.Params) error
}

// ImageTranscoder orients an image and encodes it to AVIF.
type ImageTranscoder struct {
	orient  Orienter
	encoder AVIFEncoder
	params  avifenc.Params
}

// NewImageTranscoder constructs an ImageTranscoder.
func NewImageTranscoder(orient Orienter, encoder AVIFEncoder, params avifenc.Params) *ImageTranscoder {
	return &ImageTranscoder{orient: orient, encoder: encoder, params: params}
}

// Convert writes <scratch>/<stem>.avif.
func (t *ImageTranscoder) Convert(ctx context.Context, src, scratchDir string) (string, error) {
	base := filepath.Base(src)
	oriented := filepath.Join(scratchDir, base)
	if err := t.orient.AutoOrient(ctx, src, oriented); err != nil {
		return "", err
	}
	out := filepath.Join(scratchDir, strings.TrimSuffix(base, filepath.Ext(base))+".avif")
	if err := t.encoder.Encode(ctx, oriented, out, t.params); err != nil {
		return "", err
	}
	return out, nil
}

// Quality describes the encoder settings for log lines.
func (t *ImageTranscoder) Quality() string {
	return fmt.Sprintf("q%d/s%d/%s", t.params.Quality, t.params.Speed, t.params.Codec)
}
