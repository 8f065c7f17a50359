package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile is created in the export root while a run holds it and removed
// when the run releases it, so published exports do not carry it.
const LockFile = ".easearch.lock"

// ErrLocked is returned when another process is indexing the same export.
var ErrLocked = errors.New("easearch: export root is locked by another run")

// exportLock guards one export root against concurrent runs.
type exportLock struct {
	fl *flock.Flock
}

// acquireLock takes the export root lock without waiting.
func acquireLock(root string) (*exportLock, error) {
	fl := flock.New(filepath.Join(root, LockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, fl.Path())
	}
	return &exportLock{fl: fl}, nil
}

// Release deletes the lock file and then drops the lock. The file is
// unlinked while still held so a competing try-lock cannot win on it.
func (l *exportLock) Release() error {
	rmErr := os.Remove(l.fl.Path())
	if errors.Is(rmErr, os.ErrNotExist) {
		rmErr = nil
	}
	return errors.Join(rmErr, l.fl.Unlock())
}
