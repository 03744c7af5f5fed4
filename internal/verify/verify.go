package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"keepsake/internal/archive"
	"keepsake/internal/fingerprint"
	"keepsake/internal/logging"
)

// Problem classifies a verification finding.
type Problem string

const (
	// ProblemMismatch: the archive no longer hashes to the recorded value.
	ProblemMismatch Problem = "mismatch"
	// ProblemMissingArchive: a sidecar exists but its archive does not.
	ProblemMissingArchive Problem = "missing-archive"
	// ProblemMalformedSidecar: the sidecar cannot be parsed.
	ProblemMalformedSidecar Problem = "malformed-sidecar"
	// ProblemOrphan: the source file recorded by the sidecar is gone.
	ProblemOrphan Problem = "orphan"
	// ProblemUntracked: an archive has no sidecar.
	ProblemUntracked Problem = "untracked"
	// ProblemTestFailed: 7z rejected the archive during a deep check.
	ProblemTestFailed Problem = "test-failed"
	// ProblemUnreadable: I/O failed while checking.
	ProblemUnreadable Problem = "unreadable"
)

// Finding is one problem found under the destination.
type Finding struct {
	Rel     string
	Problem Problem
	Detail  string
}

// Report summarises a verification pass.
type Report struct {
	Checked      int
	OK           int
	ArchiveBytes int64
	Findings     []Finding
}

// Healthy reports whether the pass found nothing but orphans. Orphans are
// informational: the archive is intact, its source was moved or deleted.
func (r Report) Healthy() bool {
	for _, f := range r.Findings {
		if f.Problem != ProblemOrphan {
			return false
		}
	}
	return true
}

// Count returns the number of findings with problem p.
func (r Report) Count(p Problem) int {
	n := 0
	for _, f := range r.Findings {
		if f.Problem == p {
			n++
		}
	}
	return n
}

// Tester runs the archiver's own integrity test.
type Tester interface {
	Test(ctx context.Context, archivePath, password string) error
}

// Options selects what a pass checks.
type Options struct {
	Dest string
	// Source, when set, enables orphan detection against the original tree.
	Source   string
	Password string
	// Deep additionally runs the archiver's test on every archive.
	Deep bool
}

// Verifier recomputes archive hashes under a destination and compares them
// to the sidecars written at archive time.
type Verifier struct {
	tester  Tester
	workers int
	logger  *slog.Logger
}

// New constructs a Verifier hashing up to workers archives at once. tester
// may be nil when deep checks are never requested.
func New(tester Tester, workers int, logger *slog.Logger) *Verifier {
	if workers <= 0 {
		workers = 1
	}
	return &Verifier{
		tester:  tester,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "verify"),
	}
}

// Run checks every sidecar and archive under opts.Dest.
func (v *Verifier) Run(ctx context.Context, opts Options) (Report, error) {
	dest, err := filepath.Abs(strings.TrimSpace(opts.Dest))
	if err != nil {
		return Report{}, fmt.Errorf("resolve destination: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return Report{}, fmt.Errorf("destination: %w", err)
	}
	if !info.IsDir() {
		return Report{}, fmt.Errorf("destination %s is not a directory", dest)
	}
	if opts.Deep && v.tester == nil {
		return Report{}, errors.New("deep verification requires an archive tester")
	}

	sidecars, untracked, err := scan(dest)
	if err != nil {
		return Report{}, err
	}

	var (
		mu     sync.Mutex
		report Report
	)
	add := func(ok bool, size int64, findings ...Finding) {
		mu.Lock()
		defer mu.Unlock()
		report.Checked++
		if ok {
			report.OK++
		}
		report.ArchiveBytes += size
		report.Findings = append(report.Findings, findings...)
	}

	for _, rel := range untracked {
		report.Findings = append(report.Findings, Finding{Rel: rel, Problem: ProblemUntracked})
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(v.workers)
	for _, rel := range sidecars {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			ok, size, findings := v.check(gctx, dest, rel, opts)
			add(ok, size, findings...)
			return nil
		})
	}
	_ = group.Wait()

	sort.SliceStable(report.Findings, func(i, j int) bool {
		if report.Findings[i].Rel != report.Findings[j].Rel {
			return report.Findings[i].Rel < report.Findings[j].Rel
		}
		return report.Findings[i].Problem < report.Findings[j].Problem
	})

	v.logger.Info("verification finished",
		logging.String("dest", dest),
		logging.Int("checked", report.Checked),
		logging.Int("ok", report.OK),
		logging.Int("findings", len(report.Findings)),
		logging.Int64("archive_bytes", report.ArchiveBytes),
	)
	return report, ctx.Err()
}

func (v *Verifier) check(ctx context.Context, dest, rel string, opts Options) (bool, int64, []Finding) {
	var findings []Finding
	if opts.Source != "" {
		if _, err := os.Lstat(filepath.Join(opts.Source, filepath.FromSlash(rel))); errors.Is(err, fs.ErrNotExist) {
			findings = append(findings, Finding{Rel: rel, Problem: ProblemOrphan})
		}
	}

	rec, _, err := fingerprint.Read(fingerprint.SidecarPath(dest, rel))
	if err != nil {
		problem := ProblemUnreadable
		if errors.Is(err, fingerprint.ErrMalformed) {
			problem = ProblemMalformedSidecar
		}
		return false, 0, append(findings, Finding{Rel: rel, Problem: problem, Detail: err.Error()})
	}

	set, err := archive.Resolve(archive.CanonicalPath(dest, rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, 0, append(findings, Finding{Rel: rel, Problem: ProblemMissingArchive})
		}
		return false, 0, append(findings, Finding{Rel: rel, Problem: ProblemUnreadable, Detail: err.Error()})
	}

	sum, err := fingerprint.HashFiles(set.Volumes...)
	if err != nil {
		return false, set.Size, append(findings, Finding{Rel: rel, Problem: ProblemUnreadable, Detail: err.Error()})
	}
	if !strings.EqualFold(sum, rec.ArchiveHash) {
		v.logger.Warn("archive hash mismatch",
			logging.String(logging.FieldFile, rel),
			logging.String("recorded", rec.ArchiveHash),
			logging.String("actual", sum),
		)
		return false, set.Size, append(findings, Finding{
			Rel:     rel,
			Problem: ProblemMismatch,
			Detail:  fmt.Sprintf("recorded %s, actual %s", short(rec.ArchiveHash), short(sum)),
		})
	}

	if opts.Deep {
		if err := v.tester.Test(ctx, set.Path, opts.Password); err != nil {
			return false, set.Size, append(findings, Finding{Rel: rel, Problem: ProblemTestFailed, Detail: err.Error()})
		}
	}
	return true, set.Size, findings
}

// scan returns the source-relative paths (slash form) of every sidecar under
// dest, and of every archive that lacks one.
func scan(dest string) (sidecars, untracked []string, err error) {
	archives := map[string]struct{}{}
	tracked := map[string]struct{}{}
	walkErr := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dest, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		switch {
		case strings.HasSuffix(rel, fingerprint.SidecarExt):
			source := strings.TrimSuffix(rel, fingerprint.SidecarExt)
			sidecars = append(sidecars, source)
			tracked[source] = struct{}{}
		case strings.HasSuffix(rel, archive.Ext):
			archives[strings.TrimSuffix(rel, archive.Ext)] = struct{}{}
		case strings.HasSuffix(rel, archive.Ext+".001"):
			archives[strings.TrimSuffix(rel, archive.Ext+".001")] = struct{}{}
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("scan destination: %w", walkErr)
	}
	for source := range archives {
		if _, ok := tracked[source]; !ok {
			untracked = append(untracked, source)
		}
	}
	sort.Strings(sidecars)
	sort.Strings(untracked)
	return sidecars, untracked, nil
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
