package pipeline

import "time"

// Stats aggregates unit results. Only the coordinator mutates it, and only
// with sums and counts, so completion order does not matter.
type Stats struct {
	RunID     string
	Total     int
	Processed int
	Skipped   int
	Failed    int
	// Converted counts processed units archived from a rendition.
	Converted           int
	ConversionFallbacks int
	SourceBytes         int64
	ArchiveBytes        int64
	// ComputeTime sums the time processed units spent in workers.
	ComputeTime    time.Duration
	WallTime       time.Duration
	FailuresByKind map[string]int
	// SidecarsHealed counts skips that rewrote sidecar timestamps.
	SidecarsHealed int
	Interrupted    bool
}

// Add folds one result into the totals. Skipped and failed units count
// toward Total only; sizes and timing come from processed units.
func (s *Stats) Add(r Result) {
	s.Total++
	switch r.State {
	case StateSkipped:
		s.Skipped++
		if r.SidecarHealed {
			s.SidecarsHealed++
		}
	case StateFailed:
		s.Failed++
		if s.FailuresByKind == nil {
			s.FailuresByKind = make(map[string]int)
		}
		s.FailuresByKind[r.FailureKind]++
	case StateProcessed:
		s.Processed++
		s.SourceBytes += r.SourceBytes
		s.ArchiveBytes += r.ArchiveBytes
		s.ComputeTime += r.Elapsed
		if r.Converted {
			s.Converted++
		}
	}
	if r.Fallback {
		s.ConversionFallbacks++
	}
}

// Ratio returns archive bytes per source byte, or 0 when nothing was processed.
func (s Stats) Ratio() float64 {
	if s.SourceBytes == 0 {
		return 0
	}
	return float64(s.ArchiveBytes) / float64(s.SourceBytes)
}

// Parallelism returns compute time divided by wall time: how much the pool
// overlapped work.
func (s Stats) Parallelism() float64 {
	if s.WallTime <= 0 {
		return 0
	}
	return float64(s.ComputeTime) / float64(s.WallTime)
}

// Succeeded reports whether the run finished without failed units.
func (s Stats) Succeeded() bool {
	return s.Failed == 0 && !s.Interrupted
}
