// Package brain provides the shared context store for loom projects.
//
// The brain is a single JSON document per project recording narrative,
// status, an append-only event log, and versioned artifacts. Every
// subsystem reports progress through it. Reads never fail the caller:
// an absent or corrupt document is replaced by a fresh seed state.
//
// Writes go through a flock-guarded read-modify-write path with atomic
// temp-file+rename persistence. Direct Save calls carry an optimistic
// version check: a write whose base version is older than the on-disk
// version is rejected with ErrVersionConflict so the caller can re-read
// and reapply.
//
// IMPORTANT: This package may import internal/constants, internal/errors,
// internal/domain, internal/clock, internal/ctxutil, and internal/flock.
// It MUST NOT import internal/workflow, internal/router, or internal/cli.
package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

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

// EchoFunc receives every appended event for console display.
type EchoFunc func(domain.BrainUpdate)

// Store persists the shared context document for one project directory.
// Construct with NewStore and share the instance; it is safe for
// concurrent use within the process, and cross-process access is
// serialized by the advisory file lock.
type Store struct {
	projectDir  string
	lockTimeout time.Duration
	clk         clock.Clock
	logger      zerolog.Logger
	echo        EchoFunc
	newID       func() string
}

// StoreOption is a functional option for configuring a Store.
type StoreOption func(*Store)

// WithClock sets the time source used for event and artifact timestamps.
func WithClock(clk clock.Clock) StoreOption {
	return func(s *Store) { s.clk = clk }
}

// WithLogger sets the logger used for write-failure and diagnostic logging.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithEcho sets the callback invoked for every appended event.
func WithEcho(echo EchoFunc) StoreOption {
	return func(s *Store) { s.echo = echo }
}

// WithLockTimeout overrides the default file lock acquisition timeout.
func WithLockTimeout(timeout time.Duration) StoreOption {
	return func(s *Store) { s.lockTimeout = timeout }
}

// NewStore creates a Store rooted at the given project directory.
// The document lives at <projectDir>/.loom/brain.json.
func NewStore(projectDir string, opts ...StoreOption) *Store {
	s := &Store{
		projectDir:  projectDir,
		lockTimeout: constants.DefaultLockTimeout,
		clk:         clock.RealClock{},
		logger:      zerolog.Nop(),
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return filepath.Join(s.projectDir, constants.ProjectStateDir, constants.BrainFileName)
}

// Get reads the persisted document. An absent or unparseable document
// yields a fresh seed state; Get never fails the caller.
func (s *Store) Get(ctx context.Context) *domain.Brain {
	if err := ctxutil.Canceled(ctx); err != nil {
		return domain.SeedBrain()
	}

	lock := flock.New(s.lockPath())
	if err := lock.Acquire(ctx, s.lockTimeout); err != nil {
		s.logger.Warn().Err(err).Msg("brain read proceeding without lock")
		return s.readDocument()
	}
	defer func() { _ = lock.Release() }()

	return s.readDocument()
}

// Save writes the document back with its patch version incremented by one.
// Unrelated top-level keys in the on-disk document are preserved. The write
// is rejected with ErrVersionConflict when the on-disk version has advanced
// past the version the given state was read at.
func (s *Store) Save(ctx context.Context, b *domain.Brain) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("failed to save brain: state %w", loomerrors.ErrEmptyValue)
	}

	lock := flock.New(s.lockPath())
	if err := lock.Acquire(ctx, s.lockTimeout); err != nil {
		return loomerrors.Wrap(err, "failed to save brain")
	}
	defer func() { _ = lock.Release() }()

	raw := s.readRaw()
	if onDisk, ok := raw["version"].(string); ok && versionNewer(onDisk, b.Version) {
		return fmt.Errorf("on-disk version %s is newer than base %s: %w",
			onDisk, b.Version, loomerrors.ErrVersionConflict)
	}

	b.Version = bumpPatch(b.Version)
	if err := s.writeDocument(raw, b); err != nil {
		// Write failures are logged, not thrown: the in-memory state is
		// still valid and the next save retries the whole document.
		s.logger.Error().Err(err).Str("path", s.Path()).Msg("failed to persist brain")
	}
	return nil
}

// AddUpdate appends one event to the log and echoes it to the configured
// callback. The whole read-modify-write runs under the file lock.
func (s *Store) AddUpdate(ctx context.Context, agent, role string, kind constants.UpdateKind, message string, metadata map[string]any) (*domain.BrainUpdate, error) {
	update := domain.BrainUpdate{
		ID:        s.newID(),
		Timestamp: s.clk.Now().UTC(),
		Agent:     agent,
		Role:      role,
		Type:      kind,
		Message:   message,
		Metadata:  metadata,
	}

	err := s.mutate(ctx, func(b *domain.Brain) {
		b.Updates = append(b.Updates, update)
	})
	if err != nil {
		return nil, loomerrors.Wrap(err, "failed to add update")
	}

	if s.echo != nil {
		s.echo(update)
	}
	return &update, nil
}

// UpdateArtifact records an artifact write: version 1 on first write,
// bumped version and timestamp on subsequent writes.
func (s *Store) UpdateArtifact(ctx context.Context, kind, content, path string) error {
	err := s.mutate(ctx, func(b *domain.Brain) {
		if b.Artifacts == nil {
			b.Artifacts = map[string]domain.BrainArtifact{}
		}
		artifact := domain.BrainArtifact{
			Path:        path,
			Content:     content,
			Version:     1,
			LastUpdated: s.clk.Now().UTC(),
		}
		if existing, ok := b.Artifacts[kind]; ok {
			artifact.Version = existing.Version + 1
		}
		b.Artifacts[kind] = artifact
	})
	return loomerrors.Wrapf(err, "failed to update artifact %q", kind)
}

// SetNarrative updates the free-text narrative field.
func (s *Store) SetNarrative(ctx context.Context, narrative string) error {
	err := s.mutate(ctx, func(b *domain.Brain) {
		b.Narrative = narrative
	})
	return loomerrors.Wrap(err, "failed to set narrative")
}

// SetStatus updates the coarse project status.
func (s *Store) SetStatus(ctx context.Context, status constants.BrainStatus) error {
	if !constants.ValidBrainStatus(status) {
		return fmt.Errorf("status %q: %w", status, loomerrors.ErrInvalidArgument)
	}
	err := s.mutate(ctx, func(b *domain.Brain) {
		b.Status = status
	})
	return loomerrors.Wrap(err, "failed to set status")
}

// Reset overwrites the document with a fresh seed state, discarding the
// event log and artifacts.
func (s *Store) Reset(ctx context.Context) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	lock := flock.New(s.lockPath())
	if err := lock.Acquire(ctx, s.lockTimeout); err != nil {
		return loomerrors.Wrap(err, "failed to reset brain")
	}
	defer func() { _ = lock.Release() }()

	seed := domain.SeedBrain()
	if err := s.writeDocument(map[string]any{}, seed); err != nil {
		return loomerrors.Wrap(err, "failed to reset brain")
	}
	return nil
}

// mutate applies fn to the current document and writes it back with the
// patch version incremented, all under one lock acquisition.
func (s *Store) mutate(ctx context.Context, fn func(*domain.Brain)) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	lock := flock.New(s.lockPath())
	if err := lock.Acquire(ctx, s.lockTimeout); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	raw := s.readRaw()
	b := s.readDocument()
	fn(b)
	b.Version = bumpPatch(b.Version)

	if err := s.writeDocument(raw, b); err != nil {
		s.logger.Error().Err(err).Str("path", s.Path()).Msg("failed to persist brain")
	}
	return nil
}

// readDocument parses the persisted document, falling back to the seed
// state on any failure.
func (s *Store) readDocument() *domain.Brain {
	data, err := os.ReadFile(s.Path()) //#nosec G304 -- path is constructed from the store's project directory
	if err != nil {
		return domain.SeedBrain()
	}

	var b domain.Brain
	if err := json.Unmarshal(data, &b); err != nil {
		s.logger.Warn().Err(err).Str("path", s.Path()).Msg("brain document unparseable, using seed state")
		return domain.SeedBrain()
	}
	if b.Updates == nil {
		b.Updates = []domain.BrainUpdate{}
	}
	if b.Artifacts == nil {
		b.Artifacts = map[string]domain.BrainArtifact{}
	}
	if b.Version == "" {
		b.Version = constants.BrainSeedVersion
	}
	return &b
}

// readRaw reads the on-disk document as a generic map so unrelated
// top-level keys survive a write. Failures yield an empty map.
func (s *Store) readRaw() map[string]any {
	raw := map[string]any{}
	data, err := os.ReadFile(s.Path()) //#nosec G304 -- path is constructed from the store's project directory
	if err != nil {
		return raw
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]any{}
	}
	return raw
}

// writeDocument merges the typed state into the raw document and writes
// the result atomically.
func (s *Store) writeDocument(raw map[string]any, b *domain.Brain) error {
	typed, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal brain: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(typed, &fields); err != nil {
		return fmt.Errorf("failed to merge brain: %w", err)
	}
	for k, v := range fields {
		raw[k] = v
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal brain document: %w", err)
	}

	dir := filepath.Dir(s.Path())
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return atomicWrite(s.Path(), data)
}

func (s *Store) lockPath() string {
	return s.Path() + ".lock"
}

// bumpPatch increments the patch component of a MAJOR.MINOR.PATCH version.
// A malformed version restarts at the seed version's successor.
func bumpPatch(version string) string {
	var major, minor, patch int
	if _, err := fmt.Sscanf(version, "%d.%d.%d", &major, &minor, &patch); err != nil {
		return bumpPatch(constants.BrainSeedVersion)
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
}

// versionNewer reports whether a is strictly newer than b. Unparseable
// versions are never considered newer.
func versionNewer(a, b string) bool {
	var aMaj, aMin, aPat, bMaj, bMin, bPat int
	if _, err := fmt.Sscanf(a, "%d.%d.%d", &aMaj, &aMin, &aPat); err != nil {
		return false
	}
	if _, err := fmt.Sscanf(b, "%d.%d.%d", &bMaj, &bMin, &bPat); err != nil {
		return true
	}
	if aMaj != bMaj {
		return aMaj > bMaj
	}
	if aMin != bMin {
		return aMin > bMin
	}
	return aPat > bPat
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
