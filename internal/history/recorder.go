package history

import (
	"context"
	"log/slog"
	"time"

	"keepsake/internal/logging"
	"keepsake/internal/pipeline"
)

// Recorder writes pipeline events into a Store. It implements
// pipeline.Observer; errors are logged and otherwise ignored.
type Recorder struct {
	store  *Store
	logger *slog.Logger
	ctx    context.Context
	runID  string

	// active is false when the opening row could not be written, so later
	// events for the same run are dropped instead of failing one by one.
	active bool
}

// NewRecorder returns a Recorder writing through store.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logging.NewComponentLogger(logger, "history"),
		ctx:    context.Background(),
	}
}

func (r *Recorder) OnStart(info pipeline.RunInfo) {
	err := r.store.BeginRun(r.ctx, Run{
		ID:        info.RunID,
		Mode:      info.Mode,
		Source:    info.Source,
		Dest:      info.Dest,
		Workers:   info.Workers,
		StartedAt: info.Started,
	})
	if err != nil {
		r.logger.Warn("history run not recorded",
			logging.String(logging.FieldRunID, info.RunID),
			logging.Error(err),
		)
		r.active = false
		return
	}
	r.runID = info.RunID
	r.active = true
}

func (r *Recorder) OnUnitDone(result pipeline.Result) {
	if !r.active {
		return
	}
	if err := r.store.RecordFile(r.ctx, EntryFromResult(r.runID, result)); err != nil {
		r.logger.Warn("history file outcome not recorded",
			logging.String(logging.FieldFile, result.Unit.Rel),
			logging.Error(err),
		)
	}
}

func (r *Recorder) OnFinish(info pipeline.RunInfo, stats pipeline.Stats) {
	if !r.active {
		return
	}
	r.active = false
	run := RunFromStats(info, stats)
	run.FinishedAt = time.Now()
	if err := r.store.FinishRun(r.ctx, run); err != nil {
		r.logger.Warn("history run totals not recorded",
			logging.String(logging.FieldRunID, info.RunID),
			logging.Error(err),
		)
	}
}

// RunFromStats converts final pipeline statistics into a history row.
func RunFromStats(info pipeline.RunInfo, stats pipeline.Stats) Run {
	return Run{
		ID:                  info.RunID,
		Mode:                info.Mode,
		Source:              info.Source,
		Dest:                info.Dest,
		Workers:             info.Workers,
		StartedAt:           info.Started,
		Total:               stats.Total,
		Processed:           stats.Processed,
		Skipped:             stats.Skipped,
		Failed:              stats.Failed,
		Converted:           stats.Converted,
		ConversionFallbacks: stats.ConversionFallbacks,
		SourceBytes:         stats.SourceBytes,
		ArchiveBytes:        stats.ArchiveBytes,
		ComputeTime:         stats.ComputeTime,
		WallTime:            stats.WallTime,
		Interrupted:         stats.Interrupted,
	}
}

// EntryFromResult converts one unit result into a history row.
func EntryFromResult(runID string, result pipeline.Result) FileEntry {
	entry := FileEntry{
		RunID:        runID,
		Seq:          result.Unit.Seq,
		RelPath:      result.Unit.Rel,
		State:        result.State.String(),
		Reason:       result.Reason,
		Converted:    result.Converted,
		Fallback:     result.Fallback,
		SourceBytes:  result.SourceBytes,
		ArchiveBytes: result.ArchiveBytes,
		Elapsed:      result.Elapsed,
		Volumes:      result.Volumes,
		FailureKind:  result.FailureKind,
	}
	if result.State != pipeline.StateSkipped {
		entry.Kind = result.Kind.String()
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	return entry
}
