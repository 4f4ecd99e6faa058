package runlock_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"contentsbuilder/internal/runlock"
)

func TestTryAcquireExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cycle.lock")
	first, err := runlock.TryAcquire(path)
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}
	if _, err := runlock.TryAcquire(path); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("second TryAcquire = %v, want ErrLocked", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := runlock.TryAcquire(path)
	if err != nil {
		t.Fatalf("TryAcquire after release: %v", err)
	}
	defer second.Release()
	if second.Path() != path {
		t.Fatalf("Path = %q", second.Path())
	}
}

func TestAcquireGivesUpWhenContextEnds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycle.lock")
	held, err := runlock.TryAcquire(path)
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := runlock.Acquire(ctx, path, 10*time.Millisecond); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("Acquire = %v, want ErrLocked", err)
	}
}

func TestReleaseTwice(t *testing.T) {
	lock, err := runlock.TryAcquire(filepath.Join(t.TempDir(), "cycle.lock"))
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}
