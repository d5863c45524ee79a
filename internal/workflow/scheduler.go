package workflow

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/loomworks/loom/internal/clock"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/ctxutil"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// Reporter receives progress events for the shared context document.
// The brain store satisfies this interface.
type Reporter interface {
	AddUpdate(ctx context.Context, agent, role string, kind constants.UpdateKind, message string, metadata map[string]any) (*domain.BrainUpdate, error)
}

// Outcome describes where an execution call left the workflow.
type Outcome struct {
	// Completed is set when no runnable step remains and the progress
	// state has been cleared.
	Completed bool

	// Pending is the step awaiting confirmation or manual execution,
	// nil when the workflow completed or a step failed.
	Pending *domain.WorkflowStep

	// Executed lists the IDs of steps executed during this call, in order.
	Executed []string
}

// Scheduler owns the workflow registry and drives step execution. It
// executes at most one step at a time, persists progress after every
// step, and resumes from disk when its in-memory progress is lost.
//
// Construct with NewScheduler and wire it explicitly; there is no
// process-wide instance.
type Scheduler struct {
	registry *Registry
	store    ProgressStore
	runner   StepRunner
	reporter Reporter
	clk      clock.Clock
	logger   zerolog.Logger

	mu     sync.Mutex
	active map[string]*domain.WorkflowProgress // keyed by project directory
}

// SchedulerOption is a functional option for configuring a Scheduler.
type SchedulerOption func(*Scheduler)

// WithRunner sets the step command runner. Defaults to ShellRunner.
func WithRunner(runner StepRunner) SchedulerOption {
	return func(s *Scheduler) { s.runner = runner }
}

// WithReporter sets the shared-context reporter. Nil disables reporting.
func WithReporter(reporter Reporter) SchedulerOption {
	return func(s *Scheduler) { s.reporter = reporter }
}

// WithClock sets the time source used for timestamps and ETAs.
func WithClock(clk clock.Clock) SchedulerOption {
	return func(s *Scheduler) { s.clk = clk }
}

// WithLogger sets the logger for step lifecycle events.
func WithLogger(logger zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler creates a scheduler over the given registry and store.
func NewScheduler(registry *Registry, store ProgressStore, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		registry: registry,
		store:    store,
		runner:   ShellRunner{},
		clk:      clock.RealClock{},
		logger:   zerolog.Nop(),
		active:   make(map[string]*domain.WorkflowProgress),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a workflow run in the project directory. It fails with
// ErrWorkflowActive when an incomplete progress document already exists
// on disk, computes an ETA from the summed step estimates, persists the
// fresh progress, and immediately attempts the first runnable step.
func (s *Scheduler) Start(ctx context.Context, workflowID, projectDir string, autoContinue bool) (*Outcome, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	def, err := s.registry.Get(workflowID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Load(ctx, projectDir)
	switch {
	case err == nil && !existing.Completed:
		return nil, loomerrors.ErrWorkflowActive
	case err != nil && !isNotFound(err):
		return nil, loomerrors.Wrap(err, "failed to start workflow")
	}

	now := s.clk.Now().UTC()
	progress := &domain.WorkflowProgress{
		WorkflowID:     def.ID,
		CompletedSteps: []string{},
		StartedAt:      now,
		Context:        map[string]any{},
	}
	if total := def.TotalEstimate(); total > 0 {
		eta := now.Add(total)
		progress.EstimatedCompletion = &eta
	}

	if err := s.store.Save(ctx, projectDir, progress); err != nil {
		return nil, err
	}
	s.setActive(projectDir, progress)

	s.logger.Info().
		Str("workflow", def.ID).
		Str("project", projectDir).
		Int("steps", len(def.Steps)).
		Msg("workflow started")
	s.report(ctx, constants.UpdateKindAction, "started workflow "+def.ID, map[string]any{"workflowId": def.ID})

	return s.executeNext(ctx, def, progress, projectDir, autoContinue, false)
}

// NextStep scans the definition's steps in declared order and returns
// the first step that is not yet completed, whose dependencies are all
// satisfied, and whose required context (when the step is not optional)
// matches the progress snapshot. A nil return signals completion.
func (s *Scheduler) NextStep(def *domain.WorkflowDefinition, progress *domain.WorkflowProgress) *domain.WorkflowStep {
	for i := range def.Steps {
		step := &def.Steps[i]
		if progress.HasCompleted(step.ID) {
			continue
		}
		if !progress.DependenciesSatisfied(*step) {
			continue
		}
		if len(step.RequiredContext) > 0 && !step.Optional && !progress.ContextMatches(step.RequiredContext) {
			continue
		}
		return step
	}
	return nil
}

// ExecuteNext advances the workflow in the project directory by one step
// (or a chain of auto-continuable steps). When the selected step does not
// permit auto-continue, or the caller did not request it, the step is
// returned as Pending without executing.
func (s *Scheduler) ExecuteNext(ctx context.Context, projectDir string, autoContinue bool) (*Outcome, error) {
	def, progress, err := s.resume(ctx, projectDir)
	if err != nil {
		return nil, err
	}
	return s.executeNext(ctx, def, progress, projectDir, autoContinue, false)
}

// Continue resumes a workflow, reloading progress from disk when the
// in-memory instance was lost. The explicit invocation counts as
// confirmation for the first pending step, which is executed even when
// it is not marked auto-continue; subsequent steps chain per flag.
func (s *Scheduler) Continue(ctx context.Context, projectDir string, autoContinue bool) (*Outcome, error) {
	def, progress, err := s.resume(ctx, projectDir)
	if err != nil {
		return nil, err
	}
	return s.executeNext(ctx, def, progress, projectDir, autoContinue, true)
}

// Status returns the current progress for the project directory.
func (s *Scheduler) Status(ctx context.Context, projectDir string) (*domain.WorkflowProgress, error) {
	_, progress, err := s.resume(ctx, projectDir)
	if err != nil {
		return nil, err
	}
	return progress.Clone(), nil
}

// Stop abandons the active workflow, removing in-memory and on-disk state.
func (s *Scheduler) Stop(ctx context.Context, projectDir string) error {
	_, progress, err := s.resume(ctx, projectDir)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, projectDir); err != nil {
		return err
	}
	s.clearActive(projectDir)

	s.logger.Info().Str("workflow", progress.WorkflowID).Msg("workflow stopped")
	s.report(ctx, constants.UpdateKindAction, "stopped workflow "+progress.WorkflowID, nil)
	return nil
}

// SetContext merges the given flags into the progress context snapshot
// used for step eligibility checks and persists the result.
func (s *Scheduler) SetContext(ctx context.Context, projectDir string, flags map[string]any) error {
	_, progress, err := s.resume(ctx, projectDir)
	if err != nil {
		return err
	}

	if progress.Context == nil {
		progress.Context = map[string]any{}
	}
	for k, v := range flags {
		progress.Context[k] = v
	}
	return s.store.Save(ctx, projectDir, progress)
}

// executeNext is the scheduling loop: select, execute, persist, repeat.
// Step chaining is iterative so deep workflows cannot exhaust the stack.
func (s *Scheduler) executeNext(ctx context.Context, def *domain.WorkflowDefinition, progress *domain.WorkflowProgress, projectDir string, autoContinue, confirmFirst bool) (*Outcome, error) {
	outcome := &Outcome{}

	for {
		if err := ctxutil.Canceled(ctx); err != nil {
			return outcome, err
		}

		step := s.NextStep(def, progress)
		if step == nil {
			if err := s.complete(ctx, progress, projectDir); err != nil {
				return outcome, err
			}
			outcome.Completed = true
			return outcome, nil
		}

		// Mark the step in flight before executing so a resumed run
		// knows where the previous one stopped.
		progress.CurrentStepID = step.ID
		if err := s.store.Save(ctx, projectDir, progress); err != nil {
			return outcome, err
		}

		if !(step.AutoContinue && autoContinue) && !confirmFirst {
			outcome.Pending = step
			return outcome, nil
		}
		confirmFirst = false

		if err := s.executeStep(ctx, step, progress, projectDir); err != nil {
			// Leave completedSteps unchanged and stop the chain; the
			// caller prints the command for manual execution.
			return outcome, err
		}
		outcome.Executed = append(outcome.Executed, step.ID)
	}
}

// executeStep runs one step command, measures its duration, and on
// success records completion and persists.
func (s *Scheduler) executeStep(ctx context.Context, step *domain.WorkflowStep, progress *domain.WorkflowProgress, projectDir string) error {
	s.logger.Info().
		Str("workflow", progress.WorkflowID).
		Str("step", step.ID).
		Str("command", step.Command).
		Msg("executing step")

	started := s.clk.Now()
	err := s.runner.RunStep(ctx, step.Command, projectDir)
	duration := s.clk.Now().Sub(started)

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("step", step.ID).
			Dur("duration", duration).
			Msg("step failed")
		s.report(ctx, constants.UpdateKindError, "step "+step.ID+" failed", map[string]any{
			"stepId":  step.ID,
			"command": step.Command,
		})
		return loomerrors.Wrapf(err, "step %q", step.ID)
	}

	progress.CompletedSteps = append(progress.CompletedSteps, step.ID)
	progress.CurrentStepID = ""

	// Completed steps establish context for later eligibility checks.
	if len(step.ContextOutputs) > 0 {
		if progress.Context == nil {
			progress.Context = map[string]any{}
		}
		for k, v := range step.ContextOutputs {
			progress.Context[k] = v
		}
	}

	s.logger.Info().
		Str("step", step.ID).
		Dur("duration", duration).
		Msg("step completed")
	s.report(ctx, constants.UpdateKindCompletion, "completed step "+step.ID, map[string]any{
		"stepId":     step.ID,
		"durationMs": duration.Milliseconds(),
	})

	return s.store.Save(ctx, projectDir, progress)
}

// complete marks the workflow finished and clears state from memory
// and disk.
func (s *Scheduler) complete(ctx context.Context, progress *domain.WorkflowProgress, projectDir string) error {
	progress.Completed = true
	progress.CurrentStepID = ""

	if err := s.store.Delete(ctx, projectDir); err != nil {
		return err
	}
	s.clearActive(projectDir)

	s.logger.Info().
		Str("workflow", progress.WorkflowID).
		Int("steps", len(progress.CompletedSteps)).
		Msg("workflow completed")
	s.report(ctx, constants.UpdateKindCompletion, "completed workflow "+progress.WorkflowID, map[string]any{
		"workflowId":     progress.WorkflowID,
		"completedSteps": len(progress.CompletedSteps),
	})
	return nil
}

// resume returns the definition and progress for the project, reloading
// the progress from disk when the in-memory instance was lost.
func (s *Scheduler) resume(ctx context.Context, projectDir string) (*domain.WorkflowDefinition, *domain.WorkflowProgress, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, nil, err
	}

	progress := s.getActive(projectDir)
	if progress == nil {
		loaded, err := s.store.Load(ctx, projectDir)
		if err != nil {
			if isNotFound(err) {
				return nil, nil, loomerrors.ErrNoActiveWorkflow
			}
			return nil, nil, err
		}
		progress = loaded
		s.setActive(projectDir, progress)
		s.logger.Debug().
			Str("workflow", progress.WorkflowID).
			Int("completed", len(progress.CompletedSteps)).
			Msg("resumed workflow progress from disk")
	}

	def, err := s.registry.Get(progress.WorkflowID)
	if err != nil {
		return nil, nil, err
	}
	return def, progress, nil
}

// report sends an event to the shared context document when a reporter
// is wired. Reporting failures never fail the scheduler.
func (s *Scheduler) report(ctx context.Context, kind constants.UpdateKind, message string, metadata map[string]any) {
	if s.reporter == nil {
		return
	}
	if _, err := s.reporter.AddUpdate(ctx, "scheduler", "orchestrator", kind, message, metadata); err != nil {
		s.logger.Debug().Err(err).Msg("failed to report workflow event")
	}
}

func (s *Scheduler) getActive(projectDir string) *domain.WorkflowProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[projectDir]
}

func (s *Scheduler) setActive(projectDir string, progress *domain.WorkflowProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[projectDir] = progress
}

func (s *Scheduler) clearActive(projectDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, projectDir)
}

func isNotFound(err error) bool {
	return stderrors.Is(err, loomerrors.ErrProgressNotFound)
}

// ETARemaining estimates the time left for a progress snapshot given its
// definition: the sum of estimates for steps not yet completed.
func ETARemaining(def *domain.WorkflowDefinition, progress *domain.WorkflowProgress) time.Duration {
	var remaining time.Duration
	for _, step := range def.Steps {
		if !progress.HasCompleted(step.ID) {
			remaining += step.EstimatedDuration
		}
	}
	return remaining
}
