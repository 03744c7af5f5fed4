package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"keepsake/internal/config"
	"keepsake/internal/fileutil"
	"keepsake/internal/fingerprint"
	"keepsake/internal/logging"
	"keepsake/internal/services"
	"keepsake/internal/services/sevenzip"
)

// Tool is the archiver the Writer drives.
type Tool interface {
	Add(ctx context.Context, archivePath, input string, opts sevenzip.AddOptions) error
}

// Profile is a named 7z compression level.
type Profile struct {
	Name  string
	Level int
}

// Settings holds the archive parameters taken from configuration.
type Settings struct {
	VolumeMB       int
	Threads        int
	FastLevel      int
	DefaultLevel   int
	FastExtensions []string
}

// SettingsFromConfig extracts archive settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		VolumeMB:       cfg.Archive.VolumeSizeMB,
		Threads:        cfg.Archive.Threads,
		FastLevel:      cfg.Archive.FastLevel,
		DefaultLevel:   cfg.Archive.DefaultLevel,
		FastExtensions: append([]string(nil), cfg.Archive.FastExtensions...),
	}
}

// VolumeBytes returns the configured volume size in bytes.
func (s Settings) VolumeBytes() int64 {
	return int64(s.VolumeMB) * 1000 * 1000
}

// Request describes one file to archive.
type Request struct {
	Root     string
	Rel      string
	DestRoot string
	Password string
	// Input is the file handed to 7z: a converted rendition or the source
	// itself. Empty means the source.
	Input string
	// SourceHash is reused when the change detector already computed it.
	SourceHash string
	Times      fingerprint.Times
}

// Source returns the absolute source path of the request.
func (r Request) Source() string {
	return filepath.Join(r.Root, r.Rel)
}

// Result reports what an archive call produced.
type Result struct {
	SourceBytes  int64
	ArchiveBytes int64
	Elapsed      time.Duration
	ArchivePath  string
	Volumes      int
	Profile      string
	Record       fingerprint.Record
}

// Writer archives single files into 7z volume sets and records their
// fingerprints.
type Writer struct {
	tool     Tool
	settings Settings
	fast     map[string]struct{}
	logger   *slog.Logger
}

// NewWriter constructs a Writer.
func NewWriter(tool Tool, settings Settings, logger *slog.Logger) *Writer {
	fast := make(map[string]struct{}, len(settings.FastExtensions))
	for _, ext := range settings.FastExtensions {
		fast[strings.ToLower(ext)] = struct{}{}
	}
	return &Writer{
		tool:     tool,
		settings: settings,
		fast:     fast,
		logger:   logging.NewComponentLogger(logger, "archive"),
	}
}

// ProfileFor picks the compression profile from the source file name.
// Formats that are already compressed get the fast profile.
func (w *Writer) ProfileFor(name string) Profile {
	if _, ok := w.fast[strings.ToLower(filepath.Ext(name))]; ok {
		return Profile{Name: "fast", Level: w.settings.FastLevel}
	}
	return Profile{Name: "default", Level: w.settings.DefaultLevel}
}

// Archive writes the archive for req, replacing any earlier one, and
// persists the sidecar. The returned sizes count every volume plus the
// sidecar.
//
// On failure nothing describing this file is left behind: the old sidecar is
// removed before 7z runs and any partial volumes are deleted, so the next run
// reprocesses the file instead of trusting a truncated archive.
func (w *Writer) Archive(ctx context.Context, req Request) (_ Result, err error) {
	start := time.Now()
	source := req.Source()
	input := req.Input
	if input == "" {
		input = source
	}
	logger := logging.WithContext(ctx, w.logger)

	info, err := os.Stat(source)
	if err != nil {
		return Result{}, services.Wrap(services.ErrHash, "archive", "stat source", source, err)
	}

	canonical := CanonicalPath(req.DestRoot, req.Rel)
	sidecar := fingerprint.SidecarPath(req.DestRoot, req.Rel)
	if err := os.MkdirAll(filepath.Dir(canonical), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrArchiveTool, "archive", "create destination", canonical, err)
	}
	if err := fileutil.RemoveIfExists(sidecar); err != nil {
		return Result{}, services.Wrap(services.ErrSidecar, "archive", "remove old sidecar", sidecar, err)
	}
	if err := removeStale(canonical, info.Size(), w.settings.VolumeBytes()); err != nil {
		return Result{}, services.Wrap(services.ErrArchiveTool, "archive", "remove stale volumes", canonical, err)
	}
	defer func() {
		if err != nil {
			w.discard(logger, canonical, sidecar, info.Size())
		}
	}()

	profile := w.ProfileFor(source)
	logger.Debug("archiving",
		logging.String("profile", profile.Name),
		logging.Int64("source_bytes", info.Size()),
		logging.Bool("encrypted", req.Password != ""),
	)
	err = w.tool.Add(ctx, canonical, input, sevenzip.AddOptions{
		Level:    profile.Level,
		Threads:  w.settings.Threads,
		VolumeMB: w.settings.VolumeMB,
		Password: req.Password,
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrArchiveTool, "archive", "7z", canonical, err)
	}

	set, err := collapse(canonical)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("archive written",
		logging.Int("volumes", len(set.Volumes)),
		logging.Bool("multi_volume", set.MultiVolume()),
		logging.Int64("archive_bytes", set.Size),
	)

	archiveHash, err := fingerprint.HashFiles(set.Volumes...)
	if err != nil {
		return Result{}, err
	}
	sourceHash := req.SourceHash
	if sourceHash == "" {
		if sourceHash, err = fingerprint.HashFile(source); err != nil {
			return Result{}, err
		}
	}

	times := req.Times
	if times.Modify.IsZero() {
		if times, err = fingerprint.StatTimes(source); err != nil {
			return Result{}, err
		}
	}
	rec := fingerprint.Record{SourceHash: sourceHash, ArchiveHash: archiveHash}.WithTimes(times)
	if err := fingerprint.Write(sidecar, rec); err != nil {
		return Result{}, err
	}
	sidecarInfo, err := os.Stat(sidecar)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSidecar, "archive", "stat sidecar", sidecar, err)
	}

	return Result{
		SourceBytes:  info.Size(),
		ArchiveBytes: set.Size + sidecarInfo.Size(),
		Elapsed:      time.Since(start),
		ArchivePath:  set.Path,
		Volumes:      len(set.Volumes),
		Profile:      profile.Name,
		Record:       rec,
	}, nil
}

// discard removes whatever a failed Archive call produced.
func (w *Writer) discard(logger *slog.Logger, canonical, sidecar string, sourceSize int64) {
	if err := removeStale(canonical, sourceSize, w.settings.VolumeBytes()); err != nil {
		logger.Warn("partial archive not removed", logging.String("path", canonical), logging.Error(err))
	}
	if err := fileutil.RemoveIfExists(sidecar); err != nil {
		logger.Warn("sidecar not removed", logging.String("path", sidecar), logging.Error(err))
	}
}

// collapse inspects 7z's numbered output. A lone .001 is renamed to the
// canonical path; a real multi-volume set keeps its numbering and is
// addressed by .001.
func collapse(canonical string) (VolumeSet, error) {
	first := VolumePath(canonical, 1)
	volumes, size, err := contiguousVolumes(canonical)
	if err != nil {
		return VolumeSet{}, services.Wrap(services.ErrArchiveTool, "archive", "list volumes", canonical, err)
	}
	if len(volumes) == 0 {
		return VolumeSet{}, services.Wrap(services.ErrArchiveTool, "archive", "7z", fmt.Sprintf("no first volume at %s", first), nil)
	}
	if len(volumes) > 1 {
		return VolumeSet{Path: first, Volumes: volumes, Size: size}, nil
	}
	if err := os.Rename(first, canonical); err != nil {
		return VolumeSet{}, services.Wrap(services.ErrArchiveTool, "archive", "rename volume", canonical, err)
	}
	return VolumeSet{Path: canonical, Volumes: []string{canonical}, Size: size}, nil
}
