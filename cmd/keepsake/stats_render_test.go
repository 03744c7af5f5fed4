package main

import (
	"strings"
	"testing"
	"time"

	"keepsake/internal/pipeline"
)

func TestRenderStats(t *testing.T) {
	out := renderStats(pipeline.Stats{
		RunID:          "run-1",
		Total:          3,
		Processed:      2,
		Skipped:        1,
		SourceBytes:    4 << 20,
		ArchiveBytes:   1 << 20,
		ComputeTime:    4 * time.Second,
		WallTime:       2 * time.Second,
		FailuresByKind: map[string]int{"hash": 1},
		Interrupted:    true,
	})
	for _, want := range []string{"run-1", "4.0 MiB", "1.0 MiB", "25.0%", "2.00x", "Failed (hash)", "Interrupted"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}
