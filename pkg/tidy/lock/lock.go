// Package lock keeps two tidy processes from organizing the same
// directory at the same time.
package lock

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var logger = logging.Get("lock")

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("directory is being organized by another tidy process")

// Lock is an advisory lock held for one directory.
type Lock struct {
	dir  string
	file *flock.Flock
}

// Acquire locks dir using the default lock directory.
func Acquire(dir string) (*Lock, error) {
	return AcquireIn(config.DefaultLockDir(), dir)
}

// AcquireIn locks dir with a lock file kept in lockDir. It does not
// block; ErrLocked is returned when the lock is already held.
func AcquireIn(lockDir, dir string) (*Lock, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	file := flock.New(PathFor(lockDir, abs))
	ok, err := file.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, abs)
	}

	logger.Debug("lock acquired", "dir", abs, "lock", file.Path())
	return &Lock{dir: abs, file: file}, nil
}

// PathFor returns the lock file used for the absolute directory abs.
func PathFor(lockDir, abs string) string {
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:])+".lock")
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.file.Path()
}

// Release unlocks and removes the lock file. It is safe to call more
// than once.
func (l *Lock) Release() error {
	if l == nil || !l.file.Locked() {
		return nil
	}
	if err := l.file.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if err := os.Remove(l.file.Path()); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove lock file", "path", l.file.Path(), "error", err)
	}
	logger.Debug("lock released", "dir", l.dir)
	return nil
}
