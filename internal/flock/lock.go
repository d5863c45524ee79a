package flock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/loomworks/loom/internal/errors"
)

// pollInterval is how often Acquire re-attempts a contended lock.
const pollInterval = 50 * time.Millisecond

// Lock is an exclusive advisory lock backed by a companion lock file.
// A Lock is single-use: construct with New, Acquire once, Release once.
type Lock struct {
	path string
	file *os.File
}

// New creates a lock for the given lock file path. The file is created on
// Acquire if it does not exist.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Acquire opens the lock file and polls for the exclusive lock until it is
// obtained, the timeout elapses, or the context is canceled. Timeout is
// reported as ErrLockTimeout so callers can distinguish contention from
// I/O failures.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	var err error
	l.file, err = os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600) //#nosec G304 -- lock path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)

	for {
		// Check context cancellation first
		select {
		case <-ctx.Done():
			_ = l.file.Close()
			return ctx.Err()
		default:
		}

		err = Exclusive(l.file.Fd())
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			_ = l.file.Close()
			return fmt.Errorf("%w after %v", errors.ErrLockTimeout, timeout)
		}

		// Use timer instead of Sleep for context-awareness
		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = l.file.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release unlocks and closes the lock file. Safe to call when Acquire failed.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	_ = Unlock(l.file.Fd())
	return l.file.Close()
}
