// Package config provides configuration management for loom with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (LOOM_* prefix)
//  3. Project config (.loom/config.yaml)
//  4. Global config (~/.loom/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for loom.
// It contains all configuration sections for the application.
type Config struct {
	// Backend contains settings for the AI backends that perform generation.
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`

	// Workflow contains settings for workflow scheduling and step execution.
	Workflow WorkflowConfig `yaml:"workflow" mapstructure:"workflow"`

	// Generation contains settings for the component generation pipeline.
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`

	// Guard contains settings for the self-healing command executor.
	Guard GuardConfig `yaml:"guard" mapstructure:"guard"`

	// Retry contains the retry policy shared by the client router and guard.
	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// BackendConfig contains settings for AI backend selection and invocation.
// These settings control how loom interacts with the Claude and Gemini CLIs.
type BackendConfig struct {
	// Default specifies which backend CLI to prefer (e.g., "claude", "gemini").
	// The router may still pick a different backend when an operation
	// requires capabilities the preferred one lacks.
	// Default: "claude"
	Default string `yaml:"default" mapstructure:"default"`

	// Model specifies the model to request (e.g., "sonnet", "opus", "flash").
	// If empty, the backend CLI's own default is used.
	// Default: "" (backend default)
	Model string `yaml:"model,omitempty" mapstructure:"model"`

	// APIKeyEnvVars maps backend names to their API key environment variable names.
	// This allows configuring custom API key env vars per provider.
	// Example: {"claude": "MY_ANTHROPIC_KEY"}
	// If a backend is not in the map, its default env var is used.
	// Defaults: {"claude": "ANTHROPIC_API_KEY", "gemini": "GEMINI_API_KEY"}
	APIKeyEnvVars map[string]string `yaml:"api_key_env_vars" mapstructure:"api_key_env_vars"`

	// GenerateTimeout is the maximum duration for plain text and component
	// generation calls.
	// Default: 2 minutes
	GenerateTimeout time.Duration `yaml:"generate_timeout" mapstructure:"generate_timeout"`

	// ToolTimeout is the maximum duration for tool-enabled and workflow
	// generation calls, which may edit files over many turns.
	// Default: 10 minutes
	ToolTimeout time.Duration `yaml:"tool_timeout" mapstructure:"tool_timeout"`
}

// GetAPIKeyEnvVar returns the API key environment variable for the given backend.
// It checks the configured APIKeyEnvVars map first, then falls back to the backend's default.
func (c *BackendConfig) GetAPIKeyEnvVar(backend string) string {
	if c.APIKeyEnvVars != nil {
		if envVar, ok := c.APIKeyEnvVars[backend]; ok {
			return envVar
		}
	}
	// Fall back to backend defaults
	switch backend {
	case "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// WorkflowConfig contains settings for workflow scheduling.
// These settings control how loom runs workflow steps and persists progress.
type WorkflowConfig struct {
	// AutoContinue enables automatic chaining of auto-continuable steps
	// without passing --auto on every invocation.
	// Default: false
	AutoContinue bool `yaml:"auto_continue" mapstructure:"auto_continue"`

	// StepTimeout is the maximum duration for a single workflow step command.
	// Default: 15 minutes
	StepTimeout time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`

	// Definitions is a map of custom workflow names to their YAML file paths.
	// These definitions are registered alongside the built-in workflows and
	// may overwrite a built-in with the same ID.
	Definitions map[string]string `yaml:"definitions" mapstructure:"definitions"`

	// LockTimeout is the maximum duration to wait for the progress file lock.
	// Concurrent loom invocations against the same project contend for it.
	// Default: 5 seconds
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// GenerationConfig contains settings for the component generation pipeline.
// These settings control where generated artifacts land and how the pipeline runs.
type GenerationConfig struct {
	// OutputDir is the directory where generated components are written,
	// relative to the project root.
	// Default: "src/components"
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// Framework is the target UI framework for generated components.
	// Valid values: "react", "vue", "svelte"
	// Default: "react"
	Framework string `yaml:"framework" mapstructure:"framework"`

	// Styling is the styling approach requested from the backend.
	// Common values: "tailwind", "css-modules", "styled-components"
	// Default: "tailwind"
	Styling string `yaml:"styling" mapstructure:"styling"`

	// Concurrency is the number of components generated in parallel during
	// the components stage.
	// Default: 1, Valid range: 1-8
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// GuardConfig contains settings for the self-healing command executor.
// These settings control how many times guard re-attempts a failing command
// and which backend diagnoses failures.
type GuardConfig struct {
	// MaxRetries is the number of additional top-level attempts after the
	// first failure. With MaxRetries=2 a command is attempted 3 times total.
	// Default: 2, Valid range: 0-10
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// Backend overrides the backend used for failure diagnosis.
	// If empty, falls back to Backend.Default.
	// Default: "" (uses Backend.Default)
	Backend string `yaml:"backend,omitempty" mapstructure:"backend"`

	// Model overrides the model used for failure diagnosis.
	// If empty, falls back to Backend.Model.
	// Default: "" (uses Backend.Model)
	Model string `yaml:"model,omitempty" mapstructure:"model"`

	// DiagnosisTimeout is the maximum duration for a single diagnosis call.
	// Default: 1 minute
	DiagnosisTimeout time.Duration `yaml:"diagnosis_timeout" mapstructure:"diagnosis_timeout"`
}

// RetryConfig contains the retry policy applied to retryable backend failures.
// The same policy drives the client router's retry loop; guard has its own
// attempt bound in GuardConfig because guard retries commands, not API calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts for a retryable operation,
	// including the first one.
	// Default: 3, Valid range: 1-10
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// InitialBackoff is the delay before the first retry.
	// Default: 1 second
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`

	// BackoffMultiplier is the multiplier applied to the backoff between
	// consecutive retries.
	// Example: With initial_backoff=1s and multiplier=2.0, retries wait 1s, 2s, 4s...
	// Default: 2.0, Valid range: >= 1.0
	BackoffMultiplier float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
}
