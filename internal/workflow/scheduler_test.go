package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/testutil"
)

// mockRunner records executed commands and fails those listed in failing.
type mockRunner struct {
	mu       sync.Mutex
	commands []string
	failing  map[string]bool
}

func (r *mockRunner) RunStep(_ context.Context, command, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, command)
	if r.failing[command] {
		return fmt.Errorf("exit status 1: %w", testutil.ErrMockBackendFailed)
	}
	return nil
}

func (r *mockRunner) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	copy(out, r.commands)
	return out
}

// mockReporter records brain events without a real store.
type mockReporter struct {
	mu       sync.Mutex
	messages []string
}

func (r *mockReporter) AddUpdate(_ context.Context, _, _ string, _ constants.UpdateKind, message string, _ map[string]any) (*domain.BrainUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return &domain.BrainUpdate{Message: message}, nil
}

func newTestScheduler(t *testing.T, runner StepRunner) (*Scheduler, *Registry, string) {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, registry.Register(testDefinition()))
	store := NewFileProgressStore()
	sched := NewScheduler(registry, store, WithRunner(runner))
	return sched, registry, t.TempDir()
}

func TestSchedulerNextStep(t *testing.T) {
	def := testDefinition()

	tests := []struct {
		name      string
		completed []string
		want      string
	}{
		{name: "fresh progress selects the first step", completed: nil, want: "a"},
		{name: "after a selects b", completed: []string{"a"}, want: "b"},
		{name: "after a and b selects c", completed: []string{"a", "b"}, want: "c"},
		{name: "all done selects nothing", completed: []string{"a", "b", "c"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, _, _ := newTestScheduler(t, &mockRunner{})
			progress := &domain.WorkflowProgress{
				WorkflowID:     def.ID,
				CompletedSteps: tt.completed,
				Context:        map[string]any{},
			}

			step := sched.NextStep(def, progress)
			if tt.want == "" {
				assert.Nil(t, step)
			} else {
				require.NotNil(t, step)
				assert.Equal(t, tt.want, step.ID)
			}
		})
	}

	t.Run("never returns a step with unmet dependencies", func(t *testing.T) {
		sched, _, _ := newTestScheduler(t, &mockRunner{})

		// Every subset of completed steps must yield a step whose
		// dependencies are already within that subset.
		subsets := [][]string{nil, {"a"}, {"b"}, {"c"}, {"a", "b"}, {"a", "c"}, {"b", "c"}}
		for _, completed := range subsets {
			progress := &domain.WorkflowProgress{
				WorkflowID:     def.ID,
				CompletedSteps: completed,
				Context:        map[string]any{},
			}
			step := sched.NextStep(def, progress)
			if step == nil {
				continue
			}
			for _, dep := range step.Dependencies {
				assert.True(t, progress.HasCompleted(dep),
					"step %s selected with unmet dependency %s (completed=%v)", step.ID, dep, completed)
			}
		}
	})

	t.Run("required context gates non-optional steps", func(t *testing.T) {
		sched, _, _ := newTestScheduler(t, &mockRunner{})
		gated := testDefinition()
		gated.Steps[1].RequiredContext = map[string]any{"hasRequirements": true}

		progress := &domain.WorkflowProgress{
			WorkflowID:     gated.ID,
			CompletedSteps: []string{"a"},
			Context:        map[string]any{},
		}

		// b's predicate is unmet; c depends on b so nothing is runnable.
		assert.Nil(t, sched.NextStep(gated, progress))

		progress.Context["hasRequirements"] = true
		step := sched.NextStep(gated, progress)
		require.NotNil(t, step)
		assert.Equal(t, "b", step.ID)
	})

	t.Run("optional steps waive their context predicate", func(t *testing.T) {
		sched, _, _ := newTestScheduler(t, &mockRunner{})
		gated := testDefinition()
		gated.Steps[1].RequiredContext = map[string]any{"hasRequirements": true}
		gated.Steps[1].Optional = true

		progress := &domain.WorkflowProgress{
			WorkflowID:     gated.ID,
			CompletedSteps: []string{"a"},
			Context:        map[string]any{},
		}

		step := sched.NextStep(gated, progress)
		require.NotNil(t, step)
		assert.Equal(t, "b", step.ID)
	})

	t.Run("numeric context values match across int and float64", func(t *testing.T) {
		sched, _, _ := newTestScheduler(t, &mockRunner{})
		gated := testDefinition()
		gated.Steps[1].RequiredContext = map[string]any{"componentCount": 4}

		progress := &domain.WorkflowProgress{
			WorkflowID:     gated.ID,
			CompletedSteps: []string{"a"},
			Context:        map[string]any{"componentCount": float64(4)}, // reloaded JSON yields float64
		}

		step := sched.NextStep(gated, progress)
		require.NotNil(t, step)
		assert.Equal(t, "b", step.ID)
	})
}

func TestSchedulerStart(t *testing.T) {
	t.Run("auto-continue executes steps in dependency order exactly once", func(t *testing.T) {
		runner := &mockRunner{}
		sched, _, dir := newTestScheduler(t, runner)

		outcome, err := sched.Start(context.Background(), "test-flow", dir, true)
		require.NoError(t, err)
		assert.True(t, outcome.Completed)
		assert.Equal(t, []string{"a", "b", "c"}, outcome.Executed)
		assert.Equal(t, []string{"echo a", "echo b", "echo c"}, runner.executed())
	})

	t.Run("refuses to double-start over incomplete on-disk progress", func(t *testing.T) {
		runner := &mockRunner{failing: map[string]bool{"echo b": true}}
		sched, _, dir := newTestScheduler(t, runner)
		ctx := context.Background()

		_, err := sched.Start(ctx, "test-flow", dir, true)
		require.Error(t, err) // b fails, progress stays on disk

		_, err = sched.Start(ctx, "test-flow", dir, true)
		assert.ErrorIs(t, err, loomerrors.ErrWorkflowActive)
	})

	t.Run("unknown workflow id", func(t *testing.T) {
		sched, _, dir := newTestScheduler(t, &mockRunner{})

		_, err := sched.Start(context.Background(), "missing", dir, true)
		assert.ErrorIs(t, err, loomerrors.ErrWorkflowNotFound)
	})

	t.Run("without auto-continue the first step is pending", func(t *testing.T) {
		runner := &mockRunner{}
		sched, _, dir := newTestScheduler(t, runner)

		outcome, err := sched.Start(context.Background(), "test-flow", dir, false)
		require.NoError(t, err)
		assert.False(t, outcome.Completed)
		require.NotNil(t, outcome.Pending)
		assert.Equal(t, "a", outcome.Pending.ID)
		assert.Empty(t, runner.executed())
	})

	t.Run("computes an ETA from summed step estimates", func(t *testing.T) {
		sched, _, dir := newTestScheduler(t, &mockRunner{})
		ctx := context.Background()

		_, err := sched.Start(ctx, "test-flow", dir, false)
		require.NoError(t, err)

		progress, err := sched.Status(ctx, dir)
		require.NoError(t, err)
		require.NotNil(t, progress.EstimatedCompletion)
		assert.Equal(t, 3.0, progress.EstimatedCompletion.Sub(progress.StartedAt).Seconds())
	})
}

func TestSchedulerExecuteNext(t *testing.T) {
	t.Run("failure halts the chain and leaves completed steps unchanged", func(t *testing.T) {
		runner := &mockRunner{failing: map[string]bool{"echo b": true}}
		sched, _, dir := newTestScheduler(t, runner)
		ctx := context.Background()

		_, err := sched.Start(ctx, "test-flow", dir, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, testutil.ErrMockBackendFailed)

		progress, err := sched.Status(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, progress.CompletedSteps)
		assert.Equal(t, "b", progress.CurrentStepID)

		// Only a and the failing b ran; the chain stopped before c.
		assert.Equal(t, []string{"echo a", "echo b"}, runner.executed())
	})

	t.Run("auto chain stops at a non-auto-continue step", func(t *testing.T) {
		registry := NewRegistry()
		def := testDefinition()
		def.Steps[2].AutoContinue = false
		require.NoError(t, registry.Register(def))
		runner := &mockRunner{}
		sched := NewScheduler(registry, NewFileProgressStore(), WithRunner(runner))
		dir := t.TempDir()

		outcome, err := sched.Start(context.Background(), "test-flow", dir, true)
		require.NoError(t, err)
		assert.False(t, outcome.Completed)
		require.NotNil(t, outcome.Pending)
		assert.Equal(t, "c", outcome.Pending.ID)
		assert.Equal(t, []string{"echo a", "echo b"}, runner.executed())
	})
}

func TestSchedulerContinue(t *testing.T) {
	t.Run("resumes from disk when the in-memory instance is lost", func(t *testing.T) {
		runner := &mockRunner{}
		registry := NewRegistry()
		require.NoError(t, registry.Register(testDefinition()))
		store := NewFileProgressStore()
		dir := t.TempDir()
		ctx := context.Background()

		// Simulate a previous process that completed step a.
		first := NewScheduler(registry, store, WithRunner(runner))
		_, err := first.Start(ctx, "test-flow", dir, false)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, dir, &domain.WorkflowProgress{
			WorkflowID:     "test-flow",
			CompletedSteps: []string{"a"},
			Context:        map[string]any{},
		}))

		// A fresh scheduler (fresh process) picks up where it left off.
		second := NewScheduler(registry, store, WithRunner(runner))
		outcome, err := second.Continue(ctx, dir, true)
		require.NoError(t, err)
		assert.True(t, outcome.Completed)
		assert.Equal(t, []string{"b", "c"}, outcome.Executed)
	})

	t.Run("resumed progress with completed a selects b next", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(testDefinition()))
		store := NewFileProgressStore()
		dir := t.TempDir()
		ctx := context.Background()

		require.NoError(t, store.Save(ctx, dir, &domain.WorkflowProgress{
			WorkflowID:     "test-flow",
			CompletedSteps: []string{"a"},
			Context:        map[string]any{},
		}))

		runner := &mockRunner{}
		sched := NewScheduler(registry, store, WithRunner(runner))
		outcome, err := sched.ExecuteNext(ctx, dir, false)
		require.NoError(t, err)
		require.NotNil(t, outcome.Pending)
		assert.Equal(t, "b", outcome.Pending.ID)
	})

	t.Run("no state anywhere fails with ErrNoActiveWorkflow", func(t *testing.T) {
		sched, _, dir := newTestScheduler(t, &mockRunner{})

		_, err := sched.Continue(context.Background(), dir, true)
		assert.ErrorIs(t, err, loomerrors.ErrNoActiveWorkflow)
	})

	t.Run("explicit continue executes a pending non-auto step", func(t *testing.T) {
		registry := NewRegistry()
		def := testDefinition()
		def.Steps[0].AutoContinue = false
		require.NoError(t, registry.Register(def))
		runner := &mockRunner{}
		sched := NewScheduler(registry, NewFileProgressStore(), WithRunner(runner))
		dir := t.TempDir()
		ctx := context.Background()

		outcome, err := sched.Start(ctx, "test-flow", dir, true)
		require.NoError(t, err)
		require.NotNil(t, outcome.Pending)
		assert.Equal(t, "a", outcome.Pending.ID)

		outcome, err = sched.Continue(ctx, dir, true)
		require.NoError(t, err)
		assert.True(t, outcome.Completed)
		assert.Equal(t, []string{"a", "b", "c"}, outcome.Executed)
	})
}

func TestSchedulerStop(t *testing.T) {
	t.Run("clears in-memory and on-disk state", func(t *testing.T) {
		sched, _, dir := newTestScheduler(t, &mockRunner{})
		ctx := context.Background()

		_, err := sched.Start(ctx, "test-flow", dir, false)
		require.NoError(t, err)

		require.NoError(t, sched.Stop(ctx, dir))

		_, err = sched.Status(ctx, dir)
		assert.ErrorIs(t, err, loomerrors.ErrNoActiveWorkflow)
	})

	t.Run("stopping without an active workflow fails", func(t *testing.T) {
		sched, _, dir := newTestScheduler(t, &mockRunner{})

		err := sched.Stop(context.Background(), dir)
		assert.ErrorIs(t, err, loomerrors.ErrNoActiveWorkflow)
	})
}

func TestSchedulerCompletionClearsState(t *testing.T) {
	runner := &mockRunner{}
	sched, _, dir := newTestScheduler(t, runner)
	ctx := context.Background()

	outcome, err := sched.Start(ctx, "test-flow", dir, true)
	require.NoError(t, err)
	require.True(t, outcome.Completed)

	// Completion removes the progress document, so a new run may start.
	_, err = sched.Start(ctx, "test-flow", dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo a", "echo b", "echo c", "echo a", "echo b", "echo c"}, runner.executed())
}

func TestSchedulerReporting(t *testing.T) {
	reporter := &mockReporter{}
	registry := NewRegistry()
	require.NoError(t, registry.Register(testDefinition()))
	sched := NewScheduler(registry, NewFileProgressStore(), WithRunner(&mockRunner{}), WithReporter(reporter))

	_, err := sched.Start(context.Background(), "test-flow", t.TempDir(), true)
	require.NoError(t, err)

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	assert.Contains(t, reporter.messages, "started workflow test-flow")
	assert.Contains(t, reporter.messages, "completed step a")
	assert.Contains(t, reporter.messages, "completed workflow test-flow")
}

func TestSchedulerSetContext(t *testing.T) {
	sched, _, dir := newTestScheduler(t, &mockRunner{})
	ctx := context.Background()

	_, err := sched.Start(ctx, "test-flow", dir, false)
	require.NoError(t, err)

	require.NoError(t, sched.SetContext(ctx, dir, map[string]any{"hasRequirements": true}))

	progress, err := sched.Status(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, true, progress.Context["hasRequirements"])
}

func TestSchedulerContextOutputs(t *testing.T) {
	t.Run("completed step outputs unlock gated steps in one chain", func(t *testing.T) {
		registry := NewRegistry()
		def := testDefinition()
		def.Steps[0].ContextOutputs = map[string]any{"ready": true}
		def.Steps[1].RequiredContext = map[string]any{"ready": true}
		require.NoError(t, registry.Register(def))
		runner := &mockRunner{}
		sched := NewScheduler(registry, NewFileProgressStore(), WithRunner(runner))

		outcome, err := sched.Start(context.Background(), "test-flow", t.TempDir(), true)
		require.NoError(t, err)
		assert.True(t, outcome.Completed)
		assert.Equal(t, []string{"a", "b", "c"}, outcome.Executed)
	})

	t.Run("outputs persist for a resumed process", func(t *testing.T) {
		registry := NewRegistry()
		def := testDefinition()
		def.Steps[0].ContextOutputs = map[string]any{"ready": true}
		def.Steps[1].RequiredContext = map[string]any{"ready": true}
		def.Steps[1].AutoContinue = false
		require.NoError(t, registry.Register(def))
		store := NewFileProgressStore()
		dir := t.TempDir()
		ctx := context.Background()

		first := NewScheduler(registry, store, WithRunner(&mockRunner{}))
		outcome, err := first.Start(ctx, "test-flow", dir, true)
		require.NoError(t, err)
		require.NotNil(t, outcome.Pending)
		assert.Equal(t, "b", outcome.Pending.ID)

		// A fresh scheduler reloads the persisted context and still sees
		// the gated step as eligible.
		second := NewScheduler(registry, store, WithRunner(&mockRunner{}))
		outcome, err = second.Continue(ctx, dir, true)
		require.NoError(t, err)
		assert.True(t, outcome.Completed)
		assert.Equal(t, []string{"b", "c"}, outcome.Executed)
	})
}

func TestBuiltinFullPipelineChains(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, RegisterBuiltins(registry))
	runner := &mockRunner{}
	sched := NewScheduler(registry, NewFileProgressStore(), WithRunner(runner))

	outcome, err := sched.Start(context.Background(), "full-pipeline", t.TempDir(), true)
	require.NoError(t, err)

	// The generation stages chain through: the requirements step's context
	// outputs satisfy the types/tokens predicates. Only the final build
	// verification waits for confirmation.
	assert.False(t, outcome.Completed)
	assert.Equal(t, []string{"requirements", "types", "tokens", "inventory", "components"}, outcome.Executed)
	require.NotNil(t, outcome.Pending)
	assert.Equal(t, "verify", outcome.Pending.ID)
}
