// Package guard implements the self-healing command executor: a bounded
// retry loop that, on failure, captures diagnostic output, asks the
// model backend for a single corrective command, applies it best-effort,
// and re-attempts the original command.
//
// Guard never returns an error for a failed target command. It returns
// a boolean; callers decide whether false is fatal.
package guard

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/prompts"
)

// skipToken is the literal the diagnosis prompt instructs the model to
// return when no safe fix exists. SKIP falls through to re-attempt the
// unchanged original command within the retry budget.
const skipToken = "SKIP"

// abortToken is the literal for unrecoverable failures. ABORT ends the
// retry loop immediately instead of burning the remaining budget.
const abortToken = "ABORT"

// maxDiagnosticOutput bounds how much captured output rides along in a
// diagnosis prompt.
const maxDiagnosticOutput = 4000

// Diagnoser is the slice of the router guard needs: one plain text
// generation call per failure diagnosis.
type Diagnoser interface {
	GenerateText(ctx context.Context, req domain.TextRequest) (string, error)
}

// EchoFunc receives user-facing progress lines. The CLI wires this to
// the console; tests capture it.
type EchoFunc func(message string)

// Guard is the self-healing command executor. Construct one per process
// and share it; Run is safe for concurrent use.
type Guard struct {
	maxRetries       int
	diagnosisTimeout time.Duration
	model            string
	runner           CommandRunner
	diagnoser        Diagnoser
	logger           zerolog.Logger
	echo             EchoFunc
}

// Option is a functional option for configuring Guard.
type Option func(*Guard)

// WithLogger sets the guard's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithEcho sets the user-facing progress callback.
func WithEcho(echo EchoFunc) Option {
	return func(g *Guard) {
		g.echo = echo
	}
}

// WithRunner overrides the command runner. Tests use this to script
// failures.
func WithRunner(runner CommandRunner) Option {
	return func(g *Guard) {
		g.runner = runner
	}
}

// New creates a Guard from the guard configuration section. A nil
// diagnoser disables the fix step: failures still retry, just without
// asking the backend for help.
func New(cfg config.GuardConfig, diagnoser Diagnoser, opts ...Option) *Guard {
	g := &Guard{
		maxRetries:       cfg.MaxRetries,
		diagnosisTimeout: cfg.DiagnosisTimeout,
		model:            cfg.Model,
		runner:           NewShellRunner(),
		diagnoser:        diagnoser,
		logger:           zerolog.Nop(),
		echo:             func(string) {},
	}
	if g.maxRetries < 0 {
		g.maxRetries = constants.DefaultGuardRetries
	}
	if g.diagnosisTimeout <= 0 {
		g.diagnosisTimeout = constants.DefaultDiagnosisTimeout
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run executes the command under the self-healing loop. It performs at
// most maxRetries+1 top-level attempts of the original command and
// reports whether any of them succeeded.
func (g *Guard) Run(ctx context.Context, command, dir string) bool {
	attempts := 0

	for {
		err := g.runner.RunPassthrough(ctx, command, dir)
		if err == nil {
			if attempts > 0 {
				g.echo("command succeeded after " + plural(attempts+1, "attempt"))
			}
			return true
		}

		if attempts >= g.maxRetries {
			g.logger.Warn().
				Str("command", command).
				Int("attempts", attempts+1).
				Msg("giving up on command")
			g.echo("command failed after " + plural(attempts+1, "attempt"))
			return false
		}
		attempts++

		if ctx.Err() != nil {
			return false
		}

		g.logger.Info().
			Str("command", command).
			Int("attempt", attempts).
			Int("max_retries", g.maxRetries).
			Msg("command failed, attempting self-heal")
		g.echo("command failed, diagnosing...")

		if aborted := g.heal(ctx, command, dir, attempts); aborted {
			g.logger.Warn().
				Str("command", command).
				Int("attempts", attempts).
				Msg("diagnosis marked the failure unrecoverable, aborting")
			g.echo("failure diagnosed as unrecoverable, aborting")
			return false
		}
	}
}

// heal captures the failure output, asks the backend for one corrective
// command, and applies it. It reports whether diagnosis declared the
// failure unrecoverable; otherwise every sub-step is best effort and the
// caller loops back to re-attempt the original.
func (g *Guard) heal(ctx context.Context, command, dir string, attempt int) bool {
	if g.diagnoser == nil {
		return false
	}

	// Deliberate duplicate execution in capture mode purely to obtain
	// output for diagnosis.
	output, exitCode, _ := g.runner.RunCapture(ctx, command, dir)

	fix := g.diagnose(ctx, command, exitCode, output, attempt)
	if strings.EqualFold(fix, abortToken) {
		return true
	}
	if fix == "" || strings.EqualFold(fix, skipToken) {
		g.logger.Info().
			Str("command", command).
			Msg("no fix determined, will retry the original command")
		g.echo("no fix determined, retrying as-is")
		return false
	}

	g.echo("applying fix: " + fix)
	if fixErr := g.runner.RunPassthrough(ctx, fix, dir); fixErr != nil {
		g.logger.Warn().
			Err(fixErr).
			Str("fix", fix).
			Msg("proposed fix failed, retrying the original command anyway")
	}
	return false
}

// diagnose renders the diagnosis prompt and returns the sanitized fix
// command, or "" when diagnosis failed.
func (g *Guard) diagnose(ctx context.Context, command string, exitCode int, output string, attempt int) string {
	prompt, err := prompts.Render(prompts.GuardDiagnose, prompts.DiagnoseData{
		Command:     command,
		ExitCode:    exitCode,
		Output:      truncateOutput(output, maxDiagnosticOutput),
		Attempt:     attempt,
		MaxAttempts: g.maxRetries + 1,
	})
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to render diagnosis prompt")
		return ""
	}

	diagCtx, cancel := context.WithTimeout(ctx, g.diagnosisTimeout)
	defer cancel()

	response, err := g.diagnoser.GenerateText(diagCtx, domain.TextRequest{
		Prompt:  prompt,
		Options: domain.GenerateOptions{Model: g.model, Timeout: g.diagnosisTimeout},
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("diagnosis call failed")
		return ""
	}

	return sanitizeFix(response)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
