package history

import (
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Run is one compress or copy invocation.
type Run struct {
	ID      string
	Mode    string
	Source  string
	Dest    string
	Workers int

	StartedAt  time.Time
	FinishedAt time.Time

	Total               int
	Processed           int
	Skipped             int
	Failed              int
	Converted           int
	ConversionFallbacks int
	SourceBytes         int64
	ArchiveBytes        int64
	ComputeTime         time.Duration
	WallTime            time.Duration
	Interrupted         bool
}

// Finished reports whether the run recorded its final statistics.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// FileEntry is the outcome of one file within a run.
type FileEntry struct {
	RunID        string
	Seq          int
	RelPath      string
	State        string
	Reason       string
	Kind         string
	Converted    bool
	Fallback     bool
	SourceBytes  int64
	ArchiveBytes int64
	Elapsed      time.Duration
	Volumes      int
	FailureKind  string
	Error        string
}

// NormalizePath returns rel in slash form and Unicode NFC, the form
// relative paths are stored and looked up in.
func NormalizePath(rel string) string {
	return norm.NFC.String(filepath.ToSlash(strings.TrimSpace(rel)))
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid || value.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
