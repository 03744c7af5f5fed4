package config

import "os"

const (
	defaultConfigPath       = "~/.config/keepsake/config.toml"
	defaultLogDir           = "~/.local/share/keepsake/logs"
	defaultHistoryDB        = "~/.local/share/keepsake/history.db"
	defaultSevenZip         = "7z"
	defaultAvifEnc          = "avifenc"
	defaultMagick           = "magick"
	defaultFFmpeg           = "ffmpeg"
	defaultExifTool         = "exiftool"
	defaultImageQuality     = 21
	defaultImageSpeed       = 8
	defaultImageCodec       = "aom"
	defaultImageThreads     = 4
	defaultVideoEncoder     = "ffmpeg"
	defaultVideoQuality     = 29.5
	defaultVideoThreads     = 4
	defaultVolumeSizeMB     = 1000
	defaultArchiveThreads   = 4
	defaultFastLevel        = 1
	defaultDefaultLevel     = 6
	defaultWorkers          = 2
	defaultStaleScratch     = 24
	defaultNtfyTimeout      = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	passwordEnv             = "KEEPSAKE_ARCHIVE_PASSWORD"
	videoEncoderFFmpeg      = "ffmpeg"
	videoEncoderDrapto      = "drapto"
	imageCodecAOM           = "aom"
	imageCodecRav1e         = "rav1e"
	maxArchiveLevel         = 9
	maxImageQuality         = 63
	maxImageSpeed           = 10
	maxPipelineWorkersLimit = 64
)

var (
	defaultImageExtensions = []string{".jpg", ".jpeg"}
	defaultVideoExtensions = []string{".mp4", ".mkv"}
	// Already-compressed formats gain little from a slow 7z pass.
	defaultFastExtensions = []string{".jpg", ".jpeg", ".mp4", ".mkv", ".webp", ".png", ".avi", ".rar", ".7z", ".zip", ".gz"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir:   os.TempDir(),
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Tools: Tools{
			SevenZip: defaultSevenZip,
			AvifEnc:  defaultAvifEnc,
			Magick:   defaultMagick,
			FFmpeg:   defaultFFmpeg,
			ExifTool: defaultExifTool,
		},
		Image: Image{
			Enabled:    true,
			Quality:    defaultImageQuality,
			Speed:      defaultImageSpeed,
			Codec:      defaultImageCodec,
			Threads:    defaultImageThreads,
			Extensions: append([]string(nil), defaultImageExtensions...),
		},
		Video: Video{
			Enabled:    true,
			Encoder:    defaultVideoEncoder,
			Quality:    defaultVideoQuality,
			Threads:    defaultVideoThreads,
			Extensions: append([]string(nil), defaultVideoExtensions...),
		},
		Archive: Archive{
			VolumeSizeMB:   defaultVolumeSizeMB,
			Threads:        defaultArchiveThreads,
			FastLevel:      defaultFastLevel,
			DefaultLevel:   defaultDefaultLevel,
			FastExtensions: append([]string(nil), defaultFastExtensions...),
		},
		Pipeline: Pipeline{
			Workers:           defaultWorkers,
			StaleScratchHours: defaultStaleScratch,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// PasswordFromEnv returns the archive password exported in the environment, if any.
func PasswordFromEnv() string {
	return os.Getenv(passwordEnv)
}
