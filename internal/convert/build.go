package convert

import (
	"log/slog"

	"keepsake/internal/config"
	"keepsake/internal/services/avifenc"
	"keepsake/internal/services/drapto"
	"keepsake/internal/services/exiftool"
	"keepsake/internal/services/ffmpeg"
	"keepsake/internal/services/magick"
)

var _ CaptureDater = (*exiftool.Client)(nil)

// RegistryFromConfig registers the configured image and video extensions.
// Disabled converters register nothing, so their files archive as-is.
func RegistryFromConfig(cfg *config.Config) *Registry {
	reg := NewRegistry()
	if cfg.Image.Enabled {
		for _, ext := range cfg.Image.Extensions {
			reg.Register(ext, KindImage)
		}
	}
	if cfg.Video.Enabled {
		for _, ext := range cfg.Video.Extensions {
			reg.Register(ext, KindVideo)
		}
	}
	return reg
}

// NewFromConfig wires the Adapter to the real external tools.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Adapter {
	converters := map[Kind]Converter{
		KindImage: NewImageTranscoder(
			magick.New(cfg.Tools.Magick),
			avifenc.New(cfg.Tools.AvifEnc),
			avifenc.Params{
				Quality: cfg.Image.Quality,
				Speed:   cfg.Image.Speed,
				Codec:   cfg.Image.Codec,
				Threads: cfg.Image.Threads,
			},
		),
	}
	switch cfg.Video.Encoder {
	case "drapto":
		converters[KindVideo] = NewDraptoVideo(drapto.NewLibrary())
	default:
		converters[KindVideo] = NewFFmpegVideo(ffmpeg.New(cfg.Tools.FFmpeg), ffmpeg.Params{
			Quality: cfg.Video.Quality,
			Threads: cfg.Video.Threads,
		})
	}
	return NewAdapter(RegistryFromConfig(cfg), converters, exiftool.New(cfg.Tools.ExifTool), logger)
}
