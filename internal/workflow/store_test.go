package workflow

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

func TestFileProgressStoreRoundTrip(t *testing.T) {
	t.Run("persist then reload yields an equal value", func(t *testing.T) {
		store := NewFileProgressStore()
		dir := t.TempDir()
		ctx := context.Background()

		eta := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)
		progress := &domain.WorkflowProgress{
			WorkflowID:          "full-pipeline",
			CurrentStepID:       "types",
			CompletedSteps:      []string{"requirements"},
			StartedAt:           time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			EstimatedCompletion: &eta,
			Context:             map[string]any{"hasRequirements": true, "componentCount": float64(4)},
		}
		require.NoError(t, store.Save(ctx, dir, progress))

		loaded, err := store.Load(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, progress.WorkflowID, loaded.WorkflowID)
		assert.Equal(t, progress.CurrentStepID, loaded.CurrentStepID)
		assert.Equal(t, progress.CompletedSteps, loaded.CompletedSteps)
		assert.True(t, progress.StartedAt.Equal(loaded.StartedAt))
		require.NotNil(t, loaded.EstimatedCompletion)
		assert.True(t, eta.Equal(*loaded.EstimatedCompletion))
		assert.Equal(t, progress.Context, loaded.Context)
		assert.False(t, loaded.LastSaved.IsZero())
	})

	t.Run("preserves completed step order", func(t *testing.T) {
		store := NewFileProgressStore()
		dir := t.TempDir()
		ctx := context.Background()

		progress := &domain.WorkflowProgress{
			WorkflowID:     "test-flow",
			CompletedSteps: []string{"c", "a", "b"},
			StartedAt:      time.Now().UTC(),
			Context:        map[string]any{},
		}
		require.NoError(t, store.Save(ctx, dir, progress))

		loaded, err := store.Load(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, loaded.CompletedSteps)
	})
}

func TestFileProgressStoreLoad(t *testing.T) {
	t.Run("absent document returns ErrProgressNotFound", func(t *testing.T) {
		store := NewFileProgressStore()

		_, err := store.Load(context.Background(), t.TempDir())
		assert.ErrorIs(t, err, loomerrors.ErrProgressNotFound)
	})

	t.Run("corrupt document returns ErrProgressCorrupted", func(t *testing.T) {
		store := NewFileProgressStore()
		dir := t.TempDir()
		path := progressPath(dir)
		require.NoError(t, os.MkdirAll(dir+"/.loom", 0o750))
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

		_, err := store.Load(context.Background(), dir)
		assert.ErrorIs(t, err, loomerrors.ErrProgressCorrupted)
	})
}

func TestFileProgressStoreDelete(t *testing.T) {
	t.Run("removes the document", func(t *testing.T) {
		store := NewFileProgressStore()
		dir := t.TempDir()
		ctx := context.Background()

		progress := &domain.WorkflowProgress{WorkflowID: "test-flow", CompletedSteps: []string{}, Context: map[string]any{}}
		require.NoError(t, store.Save(ctx, dir, progress))
		require.NoError(t, store.Delete(ctx, dir))

		_, err := store.Load(ctx, dir)
		assert.ErrorIs(t, err, loomerrors.ErrProgressNotFound)
	})

	t.Run("deleting an absent document is not an error", func(t *testing.T) {
		store := NewFileProgressStore()

		assert.NoError(t, store.Delete(context.Background(), t.TempDir()))
	})
}

func TestFileProgressStoreSaveValidation(t *testing.T) {
	t.Run("rejects nil progress", func(t *testing.T) {
		store := NewFileProgressStore()

		err := store.Save(context.Background(), t.TempDir(), nil)
		assert.ErrorIs(t, err, loomerrors.ErrEmptyValue)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		store := NewFileProgressStore()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := store.Save(ctx, t.TempDir(), &domain.WorkflowProgress{WorkflowID: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
