package config

import (
	"github.com/loomworks/loom/internal/errors"
)

// validBackends is the set of backend CLIs loom knows how to invoke.
var validBackends = map[string]bool{
	"claude": true,
	"gemini": true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - Backend default must be a known backend name
//   - Backend timeouts must be positive
//   - Guard max retries must be between 0 and 10
//   - Guard backend, if set, must be a known backend name
//   - Generation concurrency must be between 1 and 8
//   - Workflow step and lock timeouts must be positive
//   - Retry max attempts must be between 1 and 10
//   - Retry backoff multiplier must be at least 1.0
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	// Validate Backend config
	if err := validateBackendConfig(&cfg.Backend); err != nil {
		return err
	}

	// Validate Workflow config
	if err := validateWorkflowConfig(&cfg.Workflow); err != nil {
		return err
	}

	// Validate Generation config
	if err := validateGenerationConfig(&cfg.Generation); err != nil {
		return err
	}

	// Validate Guard config
	if err := validateGuardConfig(&cfg.Guard); err != nil {
		return err
	}

	// Validate Retry config
	if err := validateRetryConfig(&cfg.Retry); err != nil {
		return err
	}

	return nil
}

// validateBackendConfig checks backend-specific configuration values.
func validateBackendConfig(cfg *BackendConfig) error {
	if !validBackends[cfg.Default] {
		return errors.Wrapf(errors.ErrConfigInvalidBackend,
			"backend.default must be one of [claude, gemini], got %q", cfg.Default)
	}

	if cfg.GenerateTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidBackend,
			"backend.generate_timeout must be positive, got %s", cfg.GenerateTimeout)
	}

	if cfg.ToolTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidBackend,
			"backend.tool_timeout must be positive, got %s", cfg.ToolTimeout)
	}

	return nil
}

// validateWorkflowConfig checks workflow-specific configuration values.
func validateWorkflowConfig(cfg *WorkflowConfig) error {
	if cfg.StepTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidWorkflow,
			"workflow.step_timeout must be positive, got %s", cfg.StepTimeout)
	}

	if cfg.LockTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidWorkflow,
			"workflow.lock_timeout must be positive, got %s", cfg.LockTimeout)
	}

	return nil
}

// validateGenerationConfig checks generation-specific configuration values.
func validateGenerationConfig(cfg *GenerationConfig) error {
	if cfg.Concurrency < 1 || cfg.Concurrency > 8 {
		return errors.Wrapf(errors.ErrConfigInvalidGeneration,
			"generation.concurrency must be between 1 and 8, got %d", cfg.Concurrency)
	}

	if cfg.OutputDir == "" {
		return errors.Wrap(errors.ErrConfigInvalidGeneration,
			"generation.output_dir must not be empty")
	}

	return nil
}

// validateGuardConfig checks guard-specific configuration values.
func validateGuardConfig(cfg *GuardConfig) error {
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		return errors.Wrapf(errors.ErrConfigInvalidGuard,
			"guard.max_retries must be between 0 and 10, got %d", cfg.MaxRetries)
	}

	if cfg.Backend != "" && !validBackends[cfg.Backend] {
		return errors.Wrapf(errors.ErrConfigInvalidGuard,
			"guard.backend must be one of [claude, gemini], got %q", cfg.Backend)
	}

	if cfg.DiagnosisTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidGuard,
			"guard.diagnosis_timeout must be positive, got %s", cfg.DiagnosisTimeout)
	}

	return nil
}

// validateRetryConfig checks retry-policy configuration values.
func validateRetryConfig(cfg *RetryConfig) error {
	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 10 {
		return errors.Wrapf(errors.ErrConfigInvalidBackend,
			"retry.max_attempts must be between 1 and 10, got %d", cfg.MaxAttempts)
	}

	if cfg.InitialBackoff <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidBackend,
			"retry.initial_backoff must be positive, got %s", cfg.InitialBackoff)
	}

	if cfg.BackoffMultiplier < 1.0 {
		return errors.Wrapf(errors.ErrConfigInvalidBackend,
			"retry.backoff_multiplier must be at least 1.0, got %g", cfg.BackoffMultiplier)
	}

	return nil
}
