package config

import (
	"github.com/loomworks/loom/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
//
// Default values are chosen to provide a working configuration out of the box
// while following best practices for security and performance.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			// Default: "claude" is the only backend with tool support, which
			// workflow and tool operations require.
			Default: "claude",

			// Model: empty defers to the backend CLI's own default so users
			// track upstream model changes without editing config.
			Model: "",

			// APIKeyEnvVars: standard provider environment variables.
			// This keeps API keys out of config files for security.
			APIKeyEnvVars: map[string]string{
				"claude": "ANTHROPIC_API_KEY",
				"gemini": "GEMINI_API_KEY",
			},

			// GenerateTimeout: 2 minutes covers single-shot generation.
			// Uses the centralized constant for consistency.
			GenerateTimeout: constants.DefaultGenerateTimeout,

			// ToolTimeout: 10 minutes allows multi-turn tool sessions that
			// edit files across the project.
			ToolTimeout: constants.DefaultToolTimeout,
		},
		Workflow: WorkflowConfig{
			// AutoContinue: false keeps step chaining opt-in. Users pass
			// --auto or set this when they trust the workflow.
			AutoContinue: false,

			// StepTimeout: 15 minutes accommodates install and build steps.
			StepTimeout: constants.DefaultStepTimeout,

			// Definitions: empty map, users add their own workflow files.
			Definitions: nil,

			// LockTimeout: 5 seconds is long enough for a competing loom
			// process to finish a save, short enough to fail fast.
			LockTimeout: constants.DefaultLockTimeout,
		},
		Generation: GenerationConfig{
			// OutputDir: the conventional location in scaffolded projects.
			OutputDir: "src/components",

			// Framework: "react" matches the built-in prompt templates.
			Framework: "react",

			// Styling: "tailwind" matches the built-in prompt templates.
			Styling: "tailwind",

			// Concurrency: 1 keeps backend output deterministic and avoids
			// rate pressure. Raise it for large inventories.
			Concurrency: 1,
		},
		Guard: GuardConfig{
			// MaxRetries: 2 gives a command three total attempts, enough to
			// absorb one bad fix suggestion without looping forever.
			MaxRetries: constants.DefaultGuardRetries,

			// Backend/Model: empty falls back to the main backend settings.
			Backend: "",
			Model:   "",

			// DiagnosisTimeout: 1 minute bounds a single diagnosis call.
			DiagnosisTimeout: constants.DefaultDiagnosisTimeout,
		},
		Retry: RetryConfig{
			// MaxAttempts: 3 total attempts for retryable backend failures.
			MaxAttempts: constants.MaxRetryAttempts,

			// InitialBackoff: 1 second before the first retry.
			InitialBackoff: constants.InitialBackoff,

			// BackoffMultiplier: doubles the wait between retries.
			BackoffMultiplier: constants.BackoffMultiplier,
		},
	}
}
