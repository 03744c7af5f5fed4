package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"keepsake/internal/fingerprint"
	"keepsake/internal/logging"
	"keepsake/internal/services"
)

// Converter transforms a source file into a smaller rendition inside
// scratchDir and returns its path.
type Converter interface {
	Convert(ctx context.Context, src, scratchDir string) (string, error)
}

// MetadataCopier copies tags from one file onto another.
type MetadataCopier interface {
	CopyTags(ctx context.Context, src, dst string) error
}

// CaptureDater reads the capture time recorded inside a file. A
// MetadataCopier that also implements it takes precedence over file dates
// when stamping a rendition.
type CaptureDater interface {
	CaptureTime(ctx context.Context, path string) (time.Time, bool, error)
}

// Prepared is the file chosen for archiving.
type Prepared struct {
	Path      string
	Kind      Kind
	Converted bool
	// Err holds the conversion failure that caused a fallback to the
	// original. It never fails the unit.
	Err      error
	Duration time.Duration
}

// Fallback reports whether a conversion was attempted and abandoned.
func (p Prepared) Fallback() bool { return p.Err != nil }

// Adapter selects and runs the converter for a file.
type Adapter struct {
	registry   *Registry
	converters map[Kind]Converter
	tags       MetadataCopier
	logger     *slog.Logger
}

// NewAdapter constructs an Adapter. Kinds without a converter behave like
// KindIdentity; a nil tags copier skips metadata copying.
func NewAdapter(registry *Registry, converters map[Kind]Converter, tags MetadataCopier, logger *slog.Logger) *Adapter {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Adapter{
		registry:   registry,
		converters: converters,
		tags:       tags,
		logger:     logging.NewComponentLogger(logger, "convert"),
	}
}

// KindOf exposes the registry lookup.
func (a *Adapter) KindOf(path string) Kind { return a.registry.KindOf(path) }

// Prepare converts src when its kind has a converter. On any converter
// failure it logs and returns the original path so the unit still archives
// the untouched bytes.
func (a *Adapter) Prepare(ctx context.Context, src, scratchDir string) Prepared {
	kind := a.registry.KindOf(src)
	conv, ok := a.converters[kind]
	if kind == KindIdentity || !ok || conv == nil {
		return Prepared{Path: src, Kind: kind}
	}

	logger := logging.WithContext(ctx, a.logger)
	start := time.Now()
	out, err := conv.Convert(ctx, src, scratchDir)
	if err == nil {
		if _, statErr := os.Stat(out); statErr != nil {
			err = fmt.Errorf("converter reported %s: %w", out, statErr)
		}
	}
	elapsed := time.Since(start)
	if err != nil {
		wrapped := services.Wrap(services.ErrConversion, "convert", kind.String(), "", err)
		logger.Warn("conversion failed, archiving original",
			logging.String("path", src),
			logging.String("kind", kind.String()),
			logging.String("quality", qualityOf(conv)),
			logging.Error(err),
		)
		return Prepared{Path: src, Kind: kind, Err: wrapped, Duration: elapsed}
	}

	a.copyProvenance(ctx, logger, src, out)
	logger.Debug("converted",
		logging.String("kind", kind.String()),
		logging.Duration("elapsed", elapsed),
	)
	return Prepared{Path: out, Kind: kind, Converted: true, Duration: elapsed}
}

// copyProvenance carries tags and a date onto the rendition: the capture time
// when the source records one, else the earliest source timestamp. Failures
// are logged only.
func (a *Adapter) copyProvenance(ctx context.Context, logger *slog.Logger, src, dst string) {
	if a.tags != nil {
		if err := a.tags.CopyTags(ctx, src, dst); err != nil {
			logger.Warn("metadata copy failed", logging.String("path", dst), logging.Error(err))
		}
	}
	stamp := a.provenanceTime(ctx, logger, src)
	if stamp.IsZero() {
		return
	}
	if err := os.Chtimes(dst, stamp, stamp); err != nil {
		logger.Warn("timestamp copy failed", logging.String("path", dst), logging.Error(err))
	}
}

func (a *Adapter) provenanceTime(ctx context.Context, logger *slog.Logger, src string) time.Time {
	if dater, ok := a.tags.(CaptureDater); ok {
		ts, found, err := dater.CaptureTime(ctx, src)
		switch {
		case err != nil:
			logger.Debug("capture time unavailable, using file dates", logging.Error(err))
		case found:
			return ts
		}
	}
	times, err := fingerprint.StatTimes(src)
	if err != nil {
		logger.Warn("read source timestamps failed", logging.Error(err))
		return time.Time{}
	}
	return times.Earliest()
}

func qualityOf(conv Converter) string {
	if q, ok := conv.(interface{ Quality() string }); ok {
		return q.Quality()
	}
	return ""
}
