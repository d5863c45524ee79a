package workflow

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	loomerrors "github.com/loomworks/loom/internal/errors"
)

// StepRunner executes one step command in a project directory. The
// scheduler treats the command as an opaque shell string and only
// observes the returned error. The self-healing guard satisfies this
// interface so step commands can be wrapped in its retry loop.
type StepRunner interface {
	// RunStep executes the command with output passed through to the
	// user. A non-nil error means the step failed.
	RunStep(ctx context.Context, command, dir string) error
}

// ShellRunner executes step commands through the system shell with
// inherited standard streams.
type ShellRunner struct{}

// RunStep runs the command via "sh -c" in the given directory.
func (ShellRunner) RunStep(ctx context.Context, command, dir string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //#nosec G204 -- step commands are opaque shell strings by design
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", loomerrors.ErrStepCommandFailed, err.Error())
	}
	return nil
}

// Compile-time check that ShellRunner implements StepRunner.
var _ StepRunner = ShellRunner{}
