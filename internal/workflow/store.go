package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loomworks/loom/internal/clock"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/ctxutil"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/flock"
)

// Directory and file permission constants.
const (
	dirPerm  = 0o750 // Secure directory permissions
	filePerm = 0o600 // Secure file permissions
)

// ProgressStore defines the persistence operations for workflow progress.
// One progress document exists per project directory.
type ProgressStore interface {
	// Save persists the progress for the project (atomic write).
	Save(ctx context.Context, projectDir string, progress *domain.WorkflowProgress) error

	// Load reads the persisted progress. Returns ErrProgressNotFound when
	// no document exists and ErrProgressCorrupted when it cannot be parsed.
	Load(ctx context.Context, projectDir string) (*domain.WorkflowProgress, error)

	// Delete removes the persisted progress. Deleting an absent document
	// is not an error.
	Delete(ctx context.Context, projectDir string) error
}

// FileProgressStore implements ProgressStore on the local filesystem,
// with advisory file locking and atomic temp-file+rename writes.
type FileProgressStore struct {
	lockTimeout time.Duration
	clk         clock.Clock
}

// FileProgressStoreOption is a functional option for FileProgressStore.
type FileProgressStoreOption func(*FileProgressStore)

// WithStoreClock sets the time source used for the lastSaved stamp.
func WithStoreClock(clk clock.Clock) FileProgressStoreOption {
	return func(s *FileProgressStore) { s.clk = clk }
}

// WithStoreLockTimeout overrides the default lock acquisition timeout.
func WithStoreLockTimeout(timeout time.Duration) FileProgressStoreOption {
	return func(s *FileProgressStore) { s.lockTimeout = timeout }
}

// NewFileProgressStore creates a progress store with default settings.
func NewFileProgressStore(opts ...FileProgressStoreOption) *FileProgressStore {
	s := &FileProgressStore{
		lockTimeout: constants.DefaultLockTimeout,
		clk:         clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the progress document atomically under the file lock.
func (s *FileProgressStore) Save(ctx context.Context, projectDir string, progress *domain.WorkflowProgress) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if progress == nil {
		return fmt.Errorf("failed to save progress: progress %w", loomerrors.ErrEmptyValue)
	}

	path := progressPath(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Acquire(ctx, s.lockTimeout); err != nil {
		return loomerrors.Wrap(err, "failed to save progress")
	}
	defer func() { _ = lock.Release() }()

	progress.LastSaved = s.clk.Now().UTC()

	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := atomicWrite(path, data); err != nil {
		return loomerrors.Wrap(err, "failed to save progress")
	}
	return nil
}

// Load reads the persisted progress document.
func (s *FileProgressStore) Load(ctx context.Context, projectDir string) (*domain.WorkflowProgress, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	path := progressPath(projectDir)
	data, err := os.ReadFile(path) //#nosec G304 -- path is constructed from the project directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loomerrors.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	var progress domain.WorkflowProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("%w: %s", loomerrors.ErrProgressCorrupted, err.Error())
	}
	if progress.CompletedSteps == nil {
		progress.CompletedSteps = []string{}
	}
	if progress.Context == nil {
		progress.Context = map[string]any{}
	}
	return &progress, nil
}

// Delete removes the persisted progress document.
func (s *FileProgressStore) Delete(ctx context.Context, projectDir string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	path := progressPath(projectDir)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

// progressPath returns the location of the progress document for a project.
func progressPath(projectDir string) string {
	return filepath.Join(projectDir, constants.ProjectStateDir, constants.ProgressFileName)
}

// atomicWrite writes data to a file atomically using write-then-rename.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Sync to disk (ensure data is persisted before rename)
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Compile-time check that FileProgressStore implements ProgressStore.
var _ ProgressStore = (*FileProgressStore)(nil)
