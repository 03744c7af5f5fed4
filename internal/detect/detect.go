package detect

import (
	"context"
	"log/slog"

	"keepsake/internal/archive"
	"keepsake/internal/fingerprint"
	"keepsake/internal/logging"
)

// Action is the outcome of a change check.
type Action int

const (
	Reprocess Action = iota
	Skip
)

func (a Action) String() string {
	if a == Skip {
		return "skip"
	}
	return "reprocess"
}

// Reasons attached to a Decision.
const (
	ReasonTimestamps     = "timestamps"
	ReasonContent        = "content"
	ReasonContentChanged = "content-changed"
	ReasonNoRecord       = "no-record"
	ReasonNoArchive      = "no-archive"
)

// Target names the three paths involved in a check.
type Target struct {
	Source string
	// Archive is the canonical (unsuffixed) archive path.
	Archive string
	Sidecar string
}

// Decision is the result of Decide.
type Decision struct {
	Action Action
	Reason string
	Times  fingerprint.Times
	// SourceHash is set whenever the source was hashed, so the archive step
	// can reuse it.
	SourceHash string
	// SidecarHealed reports that a skip rewrote the sidecar timestamps.
	SidecarHealed bool
}

// Detector decides whether a source file needs archiving again.
type Detector struct {
	logger *slog.Logger
}

// New constructs a Detector.
func New(logger *slog.Logger) *Detector {
	return &Detector{logger: logging.NewComponentLogger(logger, "detect")}
}

// Decide compares the source against its sidecar. Matching timestamps skip
// without reading the file; otherwise the content hash is authoritative. A
// hash-confirmed skip refreshes the sidecar timestamps so the next run takes
// the fast path.
func (d *Detector) Decide(ctx context.Context, t Target) (Decision, error) {
	logger := logging.WithContext(ctx, d.logger)

	rec, hasRecord, err := fingerprint.Read(t.Sidecar)
	if err != nil {
		logger.Warn("sidecar unreadable, treating as absent",
			logging.String("sidecar", t.Sidecar),
			logging.Error(err),
		)
		hasRecord = false
	}

	times, err := fingerprint.StatTimes(t.Source)
	if err != nil {
		return Decision{}, err
	}

	if !archive.Exists(t.Archive) {
		return Decision{Action: Reprocess, Reason: ReasonNoArchive, Times: times}, nil
	}

	if hasRecord && rec.TimesMatch(times) {
		return Decision{Action: Skip, Reason: ReasonTimestamps, Times: times}, nil
	}

	hash, err := fingerprint.HashFile(t.Source)
	if err != nil {
		return Decision{}, err
	}
	decision := Decision{Times: times, SourceHash: hash}

	switch {
	case !hasRecord:
		decision.Action = Reprocess
		decision.Reason = ReasonNoRecord
	case hash != rec.SourceHash:
		decision.Action = Reprocess
		decision.Reason = ReasonContentChanged
	default:
		decision.Action = Skip
		decision.Reason = ReasonContent
		if err := fingerprint.Write(t.Sidecar, rec.WithTimes(times)); err != nil {
			// The skip stands; the next run will simply hash again.
			logger.Warn("sidecar timestamp refresh failed",
				logging.String("sidecar", t.Sidecar),
				logging.Error(err),
			)
		} else {
			decision.SidecarHealed = true
		}
	}
	return decision, nil
}
