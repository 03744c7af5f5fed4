package notifications

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"keepsake/internal/logging"
	"keepsake/internal/pipeline"
)

// Observer publishes one notification when a run finishes.
type Observer struct {
	svc    Service
	logger *slog.Logger
}

// NewObserver adapts svc to the pipeline observer hook.
func NewObserver(svc Service, logger *slog.Logger) *Observer {
	return &Observer{svc: svc, logger: logging.NewComponentLogger(logger, "notifications")}
}

func (o *Observer) OnStart(pipeline.RunInfo) {}

func (o *Observer) OnUnitDone(pipeline.Result) {}

func (o *Observer) OnFinish(info pipeline.RunInfo, stats pipeline.Stats) {
	event := EventRunCompleted
	switch {
	case stats.Interrupted:
		event = EventRunInterrupted
	case stats.Failed > 0:
		event = EventRunFailed
	}
	// The run context may already be cancelled on interrupt.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := o.svc.Publish(ctx, event, SummaryPayload(info, stats)); err != nil {
		o.logger.Warn("run notification not sent",
			logging.String(logging.FieldRunID, info.RunID),
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

// SummaryPayload renders run statistics into message fields.
func SummaryPayload(info pipeline.RunInfo, stats pipeline.Stats) Payload {
	archived := stats.ArchiveBytes
	if archived < 0 {
		archived = 0
	}
	return Payload{
		"run_id":       info.RunID,
		"mode":         info.Mode,
		"source":       info.Source,
		"total":        strconv.Itoa(stats.Total),
		"processed":    strconv.Itoa(stats.Processed),
		"skipped":      strconv.Itoa(stats.Skipped),
		"failed":       strconv.Itoa(stats.Failed),
		"archive_size": humanize.IBytes(uint64(archived)),
		"duration":     stats.WallTime.Round(time.Second).String(),
	}
}
