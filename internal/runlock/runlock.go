// Package runlock serializes pipeline cycles across processes with an
// advisory file lock next to the workbook.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another process holds the cycle lock.
var ErrLocked = errors.New("another cycle is already running")

// Lock is a held cycle lock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// TryAcquire takes the lock at path without waiting.
func TryAcquire(path string) (*Lock, error) {
	fl, err := newFlock(path)
	if err != nil {
		return nil, err
	}
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Acquire waits for the lock at path, polling every retryDelay until ctx ends.
func Acquire(ctx context.Context, path string, retryDelay time.Duration) (*Lock, error) {
	fl, err := newFlock(path)
	if err != nil {
		return nil, err
	}
	if retryDelay <= 0 {
		retryDelay = 250 * time.Millisecond
	}
	ok, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w (lock %s): %w", ErrLocked, path, ctxErr)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &Lock{path: path, flock: fl}, nil
}

func newFlock(path string) (*flock.Flock, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}
	return flock.New(path), nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
