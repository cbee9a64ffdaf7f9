package batch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrOutputLocked = errors.New("output directory is in use by another conversion")

const LockFileName = ".batimgcon.lock"

// LockOutputDir takes an exclusive, non-blocking lock on dir. The lock file
// is left in place after unlock so every run locks the same inode.
func LockOutputDir(dir string) (func() error, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, dir)
	}
	return lock.Unlock, nil
}
