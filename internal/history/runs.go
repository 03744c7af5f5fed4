package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAmbiguousRun is returned when a run ID prefix matches several runs.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

const runColumns = `id, mode, source, dest, workers, started_at, finished_at,
	total, processed, skipped, failed, converted, conversion_fallbacks,
	source_bytes, archive_bytes, compute_ms, wall_ms, interrupted`

const fileColumns = `run_id, seq, rel_path, state, reason, kind, converted, fallback,
	source_bytes, archive_bytes, elapsed_ms, volumes, failure_kind, error_message`

// BeginRun inserts the opening row of a run.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, mode, source, dest, workers, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Source, run.Dest, run.Workers, formatTime(started),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final statistics of a run started with BeginRun.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	res, err := s.execWithRetry(ctx, `UPDATE runs SET
		finished_at = ?, total = ?, processed = ?, skipped = ?, failed = ?,
		converted = ?, conversion_fallbacks = ?, source_bytes = ?, archive_bytes = ?,
		compute_ms = ?, wall_ms = ?, interrupted = ?
		WHERE id = ?`,
		formatTime(finished), run.Total, run.Processed, run.Skipped, run.Failed,
		run.Converted, run.ConversionFallbacks, run.SourceBytes, run.ArchiveBytes,
		run.ComputeTime.Milliseconds(), run.WallTime.Milliseconds(), boolToInt(run.Interrupted),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", run.ID)
	}
	return nil
}

// RecordFile appends the outcome of one file to its run.
func (s *Store) RecordFile(ctx context.Context, entry FileEntry) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Seq, NormalizePath(entry.RelPath), entry.State,
		nullableString(entry.Reason), nullableString(entry.Kind),
		boolToInt(entry.Converted), boolToInt(entry.Fallback),
		entry.SourceBytes, entry.ArchiveBytes, entry.Elapsed.Milliseconds(), entry.Volumes,
		nullableString(entry.FailureKind), nullableString(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("record file: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun finds a run by its full ID or a unique prefix of it. It returns
// nil when nothing matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return &run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id)
	if err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousRun, id)
	}
}

// RunFiles returns the file outcomes of a run in submission order.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]FileEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE run_id = ? ORDER BY seq, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		entry, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FileHistory returns every recorded outcome for a relative path, newest
// run first.
func (s *Store) FileHistory(ctx context.Context, rel string) ([]FileEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.run_id, f.seq, f.rel_path, f.state, f.reason, f.kind, f.converted, f.fallback,
			f.source_bytes, f.archive_bytes, f.elapsed_ms, f.volumes, f.failure_kind, f.error_message
		FROM files f JOIN runs r ON r.id = f.run_id
		WHERE f.rel_path = ? ORDER BY r.started_at DESC, f.id DESC`, NormalizePath(rel))
	if err != nil {
		return nil, fmt.Errorf("file history: %w", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		entry, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (Run, error) {
	var (
		run         Run
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		computeMS   int64
		wallMS      int64
		interrupted int
	)
	if err := row.Scan(
		&run.ID, &run.Mode, &run.Source, &run.Dest, &run.Workers, &startedRaw, &finishedRaw,
		&run.Total, &run.Processed, &run.Skipped, &run.Failed, &run.Converted, &run.ConversionFallbacks,
		&run.SourceBytes, &run.ArchiveBytes, &computeMS, &wallMS, &interrupted,
	); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	run.ComputeTime = time.Duration(computeMS) * time.Millisecond
	run.WallTime = time.Duration(wallMS) * time.Millisecond
	run.Interrupted = interrupted != 0
	return run, nil
}

func scanFile(row scanner) (FileEntry, error) {
	var (
		entry       FileEntry
		reason      sql.NullString
		kind        sql.NullString
		converted   int
		fallback    int
		elapsedMS   int64
		failureKind sql.NullString
		errMessage  sql.NullString
	)
	if err := row.Scan(
		&entry.RunID, &entry.Seq, &entry.RelPath, &entry.State, &reason, &kind, &converted, &fallback,
		&entry.SourceBytes, &entry.ArchiveBytes, &elapsedMS, &entry.Volumes, &failureKind, &errMessage,
	); err != nil {
		return FileEntry{}, fmt.Errorf("scan file entry: %w", err)
	}
	entry.Reason = reason.String
	entry.Kind = kind.String
	entry.Converted = converted != 0
	entry.Fallback = fallback != 0
	entry.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	entry.FailureKind = failureKind.String
	entry.Error = errMessage.String
	return entry, nil
}
