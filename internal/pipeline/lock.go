package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockName is the lock file kept in the destination root.
const LockName = ".keepsake.lock"

// ErrDestinationBusy reports that another run holds the destination lock.
var ErrDestinationBusy = errors.New("destination is in use by another keepsake run")

func acquireLock(dest string) (*flock.Flock, error) {
	lockPath := filepath.Join(dest, LockName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrDestinationBusy, lockPath)
	}
	return lock, nil
}
