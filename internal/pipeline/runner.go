package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"keepsake/internal/archive"
	"keepsake/internal/config"
	"keepsake/internal/convert"
	"keepsake/internal/detect"
	"keepsake/internal/logging"
	"keepsake/internal/services"
	"keepsake/internal/services/sevenzip"
)

// Run modes.
const (
	ModeCompress = "compress"
	ModeCopy     = "copy"
)

// Detector decides whether a unit needs work.
type Detector interface {
	Decide(ctx context.Context, t detect.Target) (detect.Decision, error)
}

// Preparer picks the file to archive, converting it when possible.
type Preparer interface {
	Prepare(ctx context.Context, src, scratchDir string) convert.Prepared
}

// Archiver writes one archive and its sidecar.
type Archiver interface {
	Archive(ctx context.Context, req archive.Request) (archive.Result, error)
}

// Settings sizes the worker pool.
type Settings struct {
	Workers int
	// MaxInFlight caps submitted but uncollected units.
	MaxInFlight int
	TempDir     string
}

// Options describes one run.
type Options struct {
	Source   string
	Dest     string
	Password string
	// RunID is generated when empty.
	RunID string
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver registers an observer for run events.
func WithObserver(obs Observer) Option {
	return func(r *Runner) {
		if obs != nil {
			r.observer = obs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "pipeline")
	}
}

// Runner walks a source tree and archives every file through a bounded
// worker pool.
type Runner struct {
	settings Settings
	detector Detector
	preparer Preparer
	archiver Archiver
	observer Observer
	logger   *slog.Logger
}

// New constructs a Runner from its collaborators.
func New(settings Settings, detector Detector, preparer Preparer, archiver Archiver, opts ...Option) *Runner {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	if settings.MaxInFlight < settings.Workers {
		settings.MaxInFlight = 2 * settings.Workers
	}
	if settings.TempDir == "" {
		settings.TempDir = os.TempDir()
	}
	r := &Runner{
		settings: settings,
		detector: detector,
		preparer: preparer,
		archiver: archiver,
		observer: nopObserver{},
		logger:   logging.NewComponentLogger(nil, "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig wires a Runner to the real detector, converters and 7z.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	settings := Settings{
		Workers:     cfg.Pipeline.Workers,
		MaxInFlight: cfg.InFlightLimit(),
		TempDir:     cfg.Paths.TempDir,
	}
	writer := archive.NewWriter(sevenzip.New(cfg.Tools.SevenZip), archive.SettingsFromConfig(cfg), logger)
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(settings, detect.New(logger), convert.NewFromConfig(cfg, logger), writer, opts...)
}

// Compress archives every regular file under opts.Source into opts.Dest.
// Unit failures are counted, not returned. Cancelling ctx stops new
// submissions; units already submitted run to completion and the partial
// statistics are returned together with the context error.
func (r *Runner) Compress(ctx context.Context, opts Options) (Stats, error) {
	root, dest, err := resolveRoots(opts.Source, opts.Dest)
	if err != nil {
		return Stats{}, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create destination: %w", err)
	}
	lock, err := acquireLock(dest)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("release destination lock failed", logging.Error(err))
		}
	}()

	info := r.runInfo(ModeCompress, root, dest, opts.RunID)
	logger := r.logger.With(logging.String(logging.FieldRunID, info.RunID))
	logger.Info("run started",
		logging.String("source", root),
		logging.String("dest", dest),
		logging.Int("workers", r.settings.Workers),
		logging.Int("max_in_flight", r.settings.MaxInFlight),
	)
	r.observer.OnStart(info)

	// Units finish even after cancellation, so their tools run on a
	// context that ignores it.
	work := services.WithRunID(context.WithoutCancel(ctx), info.RunID)
	units := make(chan WorkUnit)
	results := make(chan Result, r.settings.MaxInFlight)
	inFlight := semaphore.NewWeighted(int64(r.settings.MaxInFlight))

	var workers errgroup.Group
	for i := 0; i < r.settings.Workers; i++ {
		workers.Go(func() error {
			for unit := range units {
				results <- r.process(work, unit)
			}
			return nil
		})
	}

	skip := ""
	if dest != root && within(root, dest) {
		skip = dest
	}
	var walkErr error
	walkDone := make(chan struct{})
	go func() {
		defer close(walkDone)
		defer close(units)
		seq := 0
		walkErr = walkTree(ctx, root, skip, func(unit WorkUnit) error {
			if err := inFlight.Acquire(ctx, 1); err != nil {
				return err
			}
			seq++
			unit.Seq = seq
			unit.DestRoot = dest
			unit.Password = opts.Password
			units <- unit
			return nil
		})
	}()
	go func() {
		_ = workers.Wait()
		close(results)
	}()

	stats := Stats{RunID: info.RunID}
	for res := range results {
		inFlight.Release(1)
		stats.Add(res)
		r.logResult(logger, res)
		r.observer.OnUnitDone(res)
	}
	<-walkDone
	stats.WallTime = time.Since(info.Started)

	var runErr error
	switch {
	case walkErr == nil:
	case errors.Is(walkErr, context.Canceled), errors.Is(walkErr, context.DeadlineExceeded):
		stats.Interrupted = true
		runErr = walkErr
	default:
		runErr = fmt.Errorf("walk source: %w", walkErr)
	}

	logger.Info("run finished",
		logging.Int("total", stats.Total),
		logging.Int("processed", stats.Processed),
		logging.Int("skipped", stats.Skipped),
		logging.Int("failed", stats.Failed),
		logging.Int("sidecars_healed", stats.SidecarsHealed),
		logging.Int64("source_bytes", stats.SourceBytes),
		logging.Int64("archive_bytes", stats.ArchiveBytes),
		logging.Duration("wall", stats.WallTime),
		logging.Bool("interrupted", stats.Interrupted),
	)
	r.observer.OnFinish(info, stats)
	return stats, runErr
}

// Copy walks the source tree and counts its files. No bytes are copied.
func (r *Runner) Copy(ctx context.Context, opts Options) (Stats, error) {
	root, dest, err := resolveRoots(opts.Source, opts.Dest)
	if err != nil {
		return Stats{}, err
	}
	info := r.runInfo(ModeCopy, root, dest, opts.RunID)
	r.observer.OnStart(info)

	stats := Stats{RunID: info.RunID}
	walkErr := walkTree(ctx, root, "", func(unit WorkUnit) error {
		stats.Total++
		return nil
	})
	stats.WallTime = time.Since(info.Started)
	if walkErr != nil && ctx.Err() != nil {
		stats.Interrupted = true
	}
	r.observer.OnFinish(info, stats)
	if walkErr != nil {
		return stats, fmt.Errorf("walk source: %w", walkErr)
	}
	return stats, nil
}

func (r *Runner) runInfo(mode, root, dest, runID string) RunInfo {
	if runID == "" {
		runID = uuid.NewString()
	}
	return RunInfo{
		RunID:   runID,
		Mode:    mode,
		Source:  root,
		Dest:    dest,
		Workers: r.settings.Workers,
		Started: time.Now(),
	}
}

func (r *Runner) logResult(logger *slog.Logger, res Result) {
	attrs := []logging.Attr{
		logging.String(logging.FieldFile, res.Unit.Rel),
		logging.String("reason", res.Reason),
	}
	switch res.State {
	case StateSkipped:
		if res.SidecarHealed {
			attrs = append(attrs, logging.Bool("sidecar_healed", true))
		}
		logger.Debug("skipped", logging.Args(attrs...)...)
	case StateProcessed:
		attrs = append(attrs,
			logging.String("kind", res.Kind.String()),
			logging.Bool("converted", res.Converted),
			logging.Int64("source_bytes", res.SourceBytes),
			logging.Int64("archive_bytes", res.ArchiveBytes),
			logging.Int("volumes", res.Volumes),
			logging.Duration("elapsed", res.Elapsed),
		)
		logger.Info("archived", logging.Args(attrs...)...)
	case StateFailed:
		attrs = append(attrs,
			logging.String("path", res.Unit.Path),
			logging.String("failure", res.FailureKind),
			logging.Error(res.Err),
		)
		logger.Error("unit failed", logging.Args(attrs...)...)
	}
}

func resolveRoots(source, dest string) (string, string, error) {
	if source == "" || dest == "" {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "roots", "source and destination are required", nil)
	}
	root, err := filepath.Abs(source)
	if err != nil {
		return "", "", fmt.Errorf("resolve source: %w", err)
	}
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return "", "", fmt.Errorf("resolve destination: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", "", fmt.Errorf("source: %w", err)
	}
	if !info.IsDir() {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "roots", fmt.Sprintf("source %s is not a directory", root), nil)
	}
	if root == destAbs {
		return "", "", services.Wrap(services.ErrValidation, "pipeline", "roots", "source and destination must differ", nil)
	}
	return root, destAbs, nil
}
