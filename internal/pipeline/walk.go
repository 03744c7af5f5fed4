package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// walkTree emits one WorkUnit per regular file under root. skip names a
// directory to leave out (the destination, when it sits inside the source).
// Unreadable entries are emitted with walkErr set so they surface as failed
// units instead of aborting the walk.
func walkTree(ctx context.Context, root, skip string, emit func(WorkUnit) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			return emit(WorkUnit{Root: root, Path: path, Rel: relPath(root, path), walkErr: err})
		}
		if d.IsDir() {
			if skip != "" && path == skip {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return emit(WorkUnit{Root: root, Path: path, Rel: relPath(root, path)})
	})
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// within reports whether path is root or lies underneath it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
