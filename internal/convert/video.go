package convert

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"keepsake/internal/services/ffmpeg"
)

// HEVCEncoder transcodes a video with ffmpeg.
type HEVCEncoder interface {
	EncodeHEVC(ctx context.Context, input, output string, p ffmpeg.Params) error
}

// DirEncoder transcodes a video into a directory and reports the file it
// wrote. The Drapto library behaves this way.
type DirEncoder interface {
	Encode(ctx context.Context, input, outputDir string) (string, error)
}

// VideoTranscoder re-encodes videos through one of the supported backends.
// The output is always Matroska.
type VideoTranscoder struct {
	backend string
	quality string
	encode  func(ctx context.Context, src, scratchDir string) (string, error)
}

// NewFFmpegVideo returns a VideoTranscoder backed by ffmpeg/NVENC.
func NewFFmpegVideo(enc HEVCEncoder, params ffmpeg.Params) *VideoTranscoder {
	return &VideoTranscoder{
		backend: "ffmpeg",
		quality: "cq" + strconv.FormatFloat(params.Quality, 'f', -1, 64),
		encode: func(ctx context.Context, src, scratchDir string) (string, error) {
			base := filepath.Base(src)
			out := filepath.Join(scratchDir, strings.TrimSuffix(base, filepath.Ext(base))+".mkv")
			if err := enc.EncodeHEVC(ctx, src, out, params); err != nil {
				return "", err
			}
			return out, nil
		},
	}
}

// NewDraptoVideo returns a VideoTranscoder backed by the Drapto library.
func NewDraptoVideo(enc DirEncoder) *VideoTranscoder {
	return &VideoTranscoder{
		backend: "drapto",
		quality: "auto",
		encode:  enc.Encode,
	}
}

// Convert transcodes src into scratchDir.
func (t *VideoTranscoder) Convert(ctx context.Context, src, scratchDir string) (string, error) {
	return t.encode(ctx, src, scratchDir)
}

// Quality describes the encoder settings for log lines.
func (t *VideoTranscoder) Quality() string { return t.backend + "/" + t.quality }
