package backend

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	loomerrors "github.com/loomworks/loom/internal/errors"
)

// cliInfo carries backend-specific metadata for error messages.
type cliInfo struct {
	Name        string // CLI command name ("claude", "gemini")
	InstallHint string // installation instructions
	EnvVar      string // API key environment variable name
}

// wrapExecutionError classifies a subprocess failure into a taxonomy
// sentinel by inspecting the error and the CLI's stderr. Classification
// is substring based because the backend CLIs expose no structured error
// codes on their stderr stream.
func wrapExecutionError(info cliInfo, err error, stderr []byte) error {
	stderrStr := strings.TrimSpace(string(stderr))
	combined := strings.ToLower(stderrStr + " " + err.Error())

	if stderrors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s call exceeded its deadline", loomerrors.ErrTimeout, info.Name)
	}

	switch {
	case strings.Contains(combined, "executable file not found") ||
		strings.Contains(combined, "command not found"):
		return fmt.Errorf("%w: %s CLI not found - %s", loomerrors.ErrBackendNotInstalled, info.Name, info.InstallHint)

	case strings.Contains(combined, "api key") ||
		strings.Contains(combined, "authentication") ||
		strings.Contains(combined, "unauthorized") ||
		strings.Contains(combined, "permission denied") ||
		strings.Contains(combined, strings.ToLower(info.EnvVar)):
		return fmt.Errorf("%w: %s rejected the call, check %s: %s",
			loomerrors.ErrPermissionDenied, info.Name, info.EnvVar, stderrStr)

	case strings.Contains(combined, "context window") ||
		strings.Contains(combined, "context length") ||
		strings.Contains(combined, "maximum context") ||
		strings.Contains(combined, "prompt is too long"):
		return fmt.Errorf("%w: %s: %s", loomerrors.ErrContextOverflow, info.Name, stderrStr)

	case strings.Contains(combined, "timed out") ||
		strings.Contains(combined, "timeout"):
		return fmt.Errorf("%w: %s: %s", loomerrors.ErrTimeout, info.Name, stderrStr)
	}

	if stderrStr != "" {
		return fmt.Errorf("%w: %s: %s", loomerrors.ErrBackendInvocation, info.Name, stderrStr)
	}
	return fmt.Errorf("%w: %s: %s", loomerrors.ErrBackendInvocation, info.Name, err.Error())
}

// classifyErrorResponse classifies a structured error response the CLI
// returned with a zero exit code. The result text stands in for stderr.
func classifyErrorResponse(info cliInfo, result string) error {
	return wrapExecutionError(info, fmt.Errorf("%w: %s reported an error result", loomerrors.ErrBackendInvocation, info.Name), []byte(result))
}
