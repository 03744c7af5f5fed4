package deps

import "keepsake/internal/config"

// draptoFFmpeg is the binary the Drapto library resolves on PATH.
const draptoFFmpeg = "ffmpeg"

// FromConfig lists the binaries a compress run with cfg will invoke.
// Converters that are disabled contribute nothing. exiftool is optional
// because a failed metadata copy only logs a warning.
func FromConfig(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{{
		Name:        "7-Zip",
		Command:     cfg.Tools.SevenZip,
		Description: "Writes and tests the per-file archives",
	}}

	if cfg.Image.Enabled {
		reqs = append(reqs,
			Requirement{
				Name:        "ImageMagick",
				Command:     cfg.Tools.Magick,
				Description: "Applies EXIF orientation before image encoding",
			},
			Requirement{
				Name:        "avifenc",
				Command:     cfg.Tools.AvifEnc,
				Description: "Encodes images to AVIF",
			},
		)
	}

	if cfg.Video.Enabled {
		switch cfg.Video.Encoder {
		case "drapto":
			reqs = append(reqs, Requirement{
				Name:        "FFmpeg",
				Command:     draptoFFmpeg,
				Description: "Used by the Drapto library for encoding",
			})
		default:
			reqs = append(reqs, Requirement{
				Name:        "FFmpeg",
				Command:     cfg.Tools.FFmpeg,
				Description: "Encodes video to HEVC (hevc_nvenc)",
			})
		}
	}

	if cfg.Image.Enabled || cfg.Video.Enabled {
		reqs = append(reqs, Requirement{
			Name:        "ExifTool",
			Command:     cfg.Tools.ExifTool,
			Description: "Copies metadata onto converted renditions",
			Optional:    true,
		})
	}
	return reqs
}
