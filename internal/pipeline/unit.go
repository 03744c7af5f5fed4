package pipeline

import (
	"time"

	"keepsake/internal/convert"
)

// WorkUnit is one source file handed to exactly one worker.
type WorkUnit struct {
	Seq      int
	Root     string
	Path     string
	Rel      string
	DestRoot string
	Password string

	// walkErr marks an entry the tree walk could not read.
	walkErr error
}

// State is where a unit ended up.
type State int

// A unit is running from the moment a worker takes it until process returns
// one of the terminal states.
const (
	StateRunning State = iota
	StateSkipped
	StateProcessed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSkipped:
		return "skipped"
	case StateProcessed:
		return "processed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Done reports whether s is terminal.
func (s State) Done() bool { return s >= StateSkipped }

// Result is the outcome of one unit, produced by a worker and consumed only
// by the coordinator.
type Result struct {
	Unit   WorkUnit
	State  State
	Reason string
	Kind   convert.Kind
	// Converted is true when a rendition was archived instead of the source.
	Converted bool
	// Fallback is true when conversion was attempted and failed.
	Fallback bool
	// SidecarHealed is true when a skip refreshed stale sidecar timestamps.
	SidecarHealed bool
	SourceBytes   int64
	ArchiveBytes  int64
	Elapsed       time.Duration
	ArchivePath   string
	Volumes       int
	Err           error
	FailureKind   string
}
