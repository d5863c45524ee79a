package guard

import (
	"context"
	"fmt"

	loomerrors "github.com/loomworks/loom/internal/errors"
)

// StepRunner adapts Guard to the workflow scheduler's step execution
// contract: a step command runs under the self-healing loop, and
// exhaustion surfaces as a step failure the scheduler can halt on.
type StepRunner struct {
	guard *Guard
}

// NewStepRunner wraps a Guard for use as a scheduler step runner.
func NewStepRunner(g *Guard) *StepRunner {
	return &StepRunner{guard: g}
}

// RunStep executes one workflow step command under guard.
func (r *StepRunner) RunStep(ctx context.Context, command, dir string) error {
	if !r.guard.Run(ctx, command, dir) {
		return fmt.Errorf("%w: %s", loomerrors.ErrStepCommandFailed, command)
	}
	return nil
}
