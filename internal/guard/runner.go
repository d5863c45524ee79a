package guard

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner abstracts the two execution modes guard needs: a
// passthrough run with inherited I/O for the user-visible attempt, and
// a capture run that collects output for diagnosis.
type CommandRunner interface {
	// RunPassthrough executes the command with stdout/stderr inherited.
	RunPassthrough(ctx context.Context, command, dir string) error

	// RunCapture re-executes the command collecting combined output and
	// the exit code.
	RunCapture(ctx context.Context, command, dir string) (output string, exitCode int, err error)
}

// ShellRunner runs commands through the system shell.
type ShellRunner struct{}

// NewShellRunner creates a ShellRunner.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

// RunPassthrough implements CommandRunner.
func (r *ShellRunner) RunPassthrough(ctx context.Context, command, dir string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //#nosec G204 -- step commands are opaque shell strings by contract
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// RunCapture implements CommandRunner. The duplicate execution is
// deliberate: the passthrough attempt already consumed its output, and
// guard assumes the command is safe to run twice.
func (r *ShellRunner) RunCapture(ctx context.Context, command, dir string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //#nosec G204 -- step commands are opaque shell strings by contract
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		exitCode = cmd.ProcessState.ExitCode()
		if exitCode < 0 {
			exitCode = 1
		}
	}
	return string(out), exitCode, err
}

// sanitizeFix normalizes a model-proposed fix command: first line only,
// trimmed, code fences stripped. Returns "" when nothing usable remains.
func sanitizeFix(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```sh")
	response = strings.TrimPrefix(response, "```bash")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if idx := strings.IndexByte(response, '\n'); idx >= 0 {
		response = strings.TrimSpace(response[:idx])
	}
	return response
}

// truncateOutput bounds the diagnostic payload so huge build logs do
// not blow the backend's context window. The tail is kept because the
// actionable error is usually last.
func truncateOutput(output string, limit int) string {
	if len(output) <= limit {
		return output
	}
	return fmt.Sprintf("[truncated %d bytes]\n%s", len(output)-limit, output[len(output)-limit:])
}
