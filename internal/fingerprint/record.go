package fingerprint

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"keepsake/internal/fileutil"
	"keepsake/internal/services"
)

// SidecarExt is appended to the source-relative path to name a sidecar.
const SidecarExt = ".hash"

// ErrMalformed reports a sidecar whose contents cannot be parsed.
var ErrMalformed = errors.New("malformed sidecar")

// Record is the fingerprint kept beside each archive. MTime and CTime are
// empty when the sidecar predates timestamp tracking.
type Record struct {
	SourceHash  string
	ArchiveHash string
	MTime       string
	CTime       string
}

// HasTimes reports whether both timestamps were recorded.
func (r Record) HasTimes() bool {
	return r.MTime != "" && r.CTime != ""
}

// TimesMatch reports whether the recorded timestamps equal the current ones.
func (r Record) TimesMatch(t Times) bool {
	return r.HasTimes() && r.MTime == t.MTimeString() && r.CTime == t.CTimeString()
}

// WithTimes returns a copy of r stamped with t.
func (r Record) WithTimes(t Times) Record {
	r.MTime = t.MTimeString()
	r.CTime = t.CTimeString()
	return r
}

// Format renders the three-line sidecar body. The hash line is the source
// hash followed directly by the archive hash, so both must have the same
// width for Parse to split them apart again.
func (r Record) Format() ([]byte, error) {
	if r.SourceHash == "" || len(r.SourceHash) != len(r.ArchiveHash) {
		return nil, fmt.Errorf("%w: hash widths %d and %d", ErrMalformed, len(r.SourceHash), len(r.ArchiveHash))
	}
	var buf bytes.Buffer
	buf.WriteString(r.SourceHash)
	buf.WriteString(r.ArchiveHash)
	buf.WriteByte('\n')
	if r.HasTimes() {
		buf.WriteString(r.MTime)
		buf.WriteByte('\n')
		buf.WriteString(r.CTime)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Parse decodes a sidecar body. Missing timestamp lines are accepted.
func Parse(data []byte) (Record, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	hashes := strings.TrimSpace(lines[0])
	if hashes == "" || len(hashes)%2 != 0 || !isHex(hashes) {
		return Record{}, fmt.Errorf("%w: bad hash line", ErrMalformed)
	}
	half := len(hashes) / 2
	rec := Record{SourceHash: hashes[:half], ArchiveHash: hashes[half:]}

	if len(lines) > 2 {
		mtime := strings.TrimSpace(lines[1])
		ctime := strings.TrimSpace(lines[2])
		if mtime != "" && ctime != "" {
			rec.MTime = mtime
			rec.CTime = ctime
		}
	}
	return rec, nil
}

// SidecarPath returns the sidecar location for a source-relative path.
func SidecarPath(destRoot, rel string) string {
	return filepath.Join(destRoot, rel) + SidecarExt
}

// Read loads the sidecar at path. ok is false when the file does not exist.
// A malformed sidecar yields an error marked services.ErrSidecar.
func Read(path string) (rec Record, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, services.Wrap(services.ErrSidecar, "fingerprint", "read", path, err)
	}
	rec, err = Parse(data)
	if err != nil {
		return Record{}, false, services.Wrap(services.ErrSidecar, "fingerprint", "parse", path, err)
	}
	return rec, true, nil
}

// Write persists rec at path, creating parent directories as needed.
func Write(path string, rec Record) error {
	data, err := rec.Format()
	if err != nil {
		return services.Wrap(services.ErrSidecar, "fingerprint", "format", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrSidecar, "fingerprint", "write", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrSidecar, "fingerprint", "write", path, err)
	}
	return nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
