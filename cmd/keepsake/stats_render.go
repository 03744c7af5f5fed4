package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"keepsake/internal/pipeline"
)

func renderStats(stats pipeline.Stats) string {
	rows := [][]string{
		{"Run", stats.RunID},
		{"Files", strconv.Itoa(stats.Total)},
		{"Processed", strconv.Itoa(stats.Processed)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
		{"Failed", strconv.Itoa(stats.Failed)},
		{"Converted", strconv.Itoa(stats.Converted)},
		{"Conversion fallbacks", strconv.Itoa(stats.ConversionFallbacks)},
		{"Source size", formatBytes(stats.SourceBytes)},
		{"Archive size", formatBytes(stats.ArchiveBytes)},
		{"Ratio", formatRatio(stats.Ratio())},
		{"Compute time", formatDuration(stats.ComputeTime)},
		{"Wall time", formatDuration(stats.WallTime)},
		{"Parallelism", fmt.Sprintf("%.2fx", stats.Parallelism())},
	}

	kinds := make([]string, 0, len(stats.FailuresByKind))
	for kind := range stats.FailuresByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		rows = append(rows, []string{"Failed (" + kind + ")", strconv.Itoa(stats.FailuresByKind[kind])})
	}
	if stats.SidecarsHealed > 0 {
		rows = append(rows, []string{"Sidecars healed", strconv.Itoa(stats.SidecarsHealed)})
	}
	if stats.Interrupted {
		rows = append(rows, []string{"Interrupted", "yes"})
	}
	return renderTable([]string{"Statistic", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func formatRatio(r float64) string {
	if r == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", r*100)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(time.Millisecond).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
