package pipeline

import (
	"context"
	"time"

	"keepsake/internal/archive"
	"keepsake/internal/convert"
	"keepsake/internal/detect"
	"keepsake/internal/fingerprint"
	"keepsake/internal/services"
)

// process runs one unit to a terminal state. Every error becomes a failed
// result; nothing escapes to the pool.
func (r *Runner) process(ctx context.Context, unit WorkUnit) Result {
	res := Result{Unit: unit, State: StateRunning}
	if unit.walkErr != nil {
		return failed(res, services.Wrap(services.ErrHash, "walk", "read entry", unit.Rel, unit.walkErr))
	}
	ctx = services.WithFile(ctx, unit.Rel)
	start := time.Now()

	decision, err := r.detector.Decide(services.WithStage(ctx, "detect"), detect.Target{
		Source:  unit.Path,
		Archive: archive.CanonicalPath(unit.DestRoot, unit.Rel),
		Sidecar: fingerprint.SidecarPath(unit.DestRoot, unit.Rel),
	})
	if err != nil {
		return failed(res, err)
	}
	res.Reason = decision.Reason
	if decision.Action == detect.Skip {
		res.State = StateSkipped
		res.SidecarHealed = decision.SidecarHealed
		return res
	}

	scratch, err := convert.NewScratch(r.settings.TempDir)
	if err != nil {
		return failed(res, err)
	}
	defer scratch.Close()

	prepared := r.preparer.Prepare(services.WithStage(ctx, "convert"), unit.Path, scratch.Dir)
	res.Kind = prepared.Kind
	res.Converted = prepared.Converted
	res.Fallback = prepared.Fallback()

	out, err := r.archiver.Archive(services.WithStage(ctx, "archive"), archive.Request{
		Root:       unit.Root,
		Rel:        unit.Rel,
		DestRoot:   unit.DestRoot,
		Password:   unit.Password,
		Input:      prepared.Path,
		SourceHash: decision.SourceHash,
		Times:      decision.Times,
	})
	if err != nil {
		return failed(res, err)
	}

	res.State = StateProcessed
	res.SourceBytes = out.SourceBytes
	res.ArchiveBytes = out.ArchiveBytes
	res.ArchivePath = out.ArchivePath
	res.Volumes = out.Volumes
	res.Elapsed = time.Since(start)
	return res
}

func failed(res Result, err error) Result {
	res.State = StateFailed
	res.Err = err
	res.FailureKind = services.FailureKind(err)
	return res
}
