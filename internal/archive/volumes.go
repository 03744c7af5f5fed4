package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"keepsake/internal/fileutil"
)

// Ext is appended to the source-relative path to name an archive.
const Ext = ".7z"

// CanonicalPath returns the unsuffixed archive path for a source-relative path.
func CanonicalPath(destRoot, rel string) string {
	return filepath.Join(destRoot, rel) + Ext
}

// VolumePath returns the path of volume n (1-based) of the archive at canonical.
func VolumePath(canonical string, n int) string {
	return fmt.Sprintf("%s.%03d", canonical, n)
}

// Exists reports whether an archive is present at canonical, either as a
// single file or as a first volume.
func Exists(canonical string) bool {
	return fileutil.Exists(canonical) || fileutil.Exists(VolumePath(canonical, 1))
}

// VolumeSet describes the files making up one archive.
type VolumeSet struct {
	// Path is the canonical location recorded for the archive: the
	// unsuffixed path for a single volume, volume one otherwise.
	Path    string
	Volumes []string
	Size    int64
}

// MultiVolume reports whether the set spans more than one file.
func (v VolumeSet) MultiVolume() bool { return len(v.Volumes) > 1 }

// Resolve locates the existing archive for canonical. A single unsuffixed
// file wins over numbered volumes.
func Resolve(canonical string) (VolumeSet, error) {
	if info, err := os.Stat(canonical); err == nil && !info.IsDir() {
		return VolumeSet{Path: canonical, Volumes: []string{canonical}, Size: info.Size()}, nil
	}
	volumes, size, err := contiguousVolumes(canonical)
	if err != nil {
		return VolumeSet{}, err
	}
	if len(volumes) == 0 {
		return VolumeSet{}, fmt.Errorf("archive %s: %w", canonical, fs.ErrNotExist)
	}
	return VolumeSet{Path: volumes[0], Volumes: volumes, Size: size}, nil
}

// contiguousVolumes lists .001, .002, ... up to the first gap and sums
// their sizes.
func contiguousVolumes(canonical string) ([]string, int64, error) {
	var (
		volumes []string
		total   int64
	)
	for n := 1; ; n++ {
		path := VolumePath(canonical, n)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return volumes, total, nil
			}
			return nil, 0, err
		}
		volumes = append(volumes, path)
		total += info.Size()
	}
}

// staleVolumeCount returns the highest volume number that may be left over
// from an earlier archive of this file: the count derived from the source
// size (a tenth of the volume size per step, which over-covers any real
// ratio) or the last contiguous existing volume, whichever is larger.
func staleVolumeCount(canonical string, sourceSize, volumeBytes int64) int {
	step := volumeBytes / 10
	if step <= 0 {
		step = 1
	}
	n := int(sourceSize/step) + 1
	for i := n + 1; fileutil.Exists(VolumePath(canonical, i)); i++ {
		n = i
	}
	return n
}

// removeStale deletes the canonical archive and any numbered volumes that a
// previous run could have produced, so a smaller new archive is never
// mistaken for part of a larger old one.
func removeStale(canonical string, sourceSize, volumeBytes int64) error {
	if err := fileutil.RemoveIfExists(canonical); err != nil {
		return err
	}
	last := staleVolumeCount(canonical, sourceSize, volumeBytes)
	for i := 0; i <= last; i++ {
		if err := fileutil.RemoveIfExists(VolumePath(canonical, i)); err != nil {
			return err
		}
	}
	return nil
}
