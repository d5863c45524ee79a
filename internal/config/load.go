package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/errors"
)

// mergeStringMaps merges src map into dst map, creating dst if nil.
// Returns the merged map (which may be the same as dst if it was non-nil).
func mergeStringMaps(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// newViperInstance creates a new Viper instance with standard loom configuration.
// This includes environment variable prefix (LOOM_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
// This helps consolidate the common pattern of checking for missing config files.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (LOOM_* prefix)
//  2. Project config (.loom/config.yaml)
//  3. Global config (~/.loom/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// The function returns an error only for actual configuration problems,
// not for missing config files (which are expected in many scenarios).
//
// The context parameter is accepted for API consistency and future use,
// but is not currently used for cancellation since config file reads are
// typically fast local I/O operations.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Load global config first (lower precedence)
	// Global config provides user-wide defaults that can be overridden per-project
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	// Load project config (higher precedence, merges over global)
	// Project config allows per-project customization
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	// Log loaded configuration for debugging
	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("backend.default", cfg.Backend.Default).
		Dur("backend.generate_timeout", cfg.Backend.GenerateTimeout).
		Dur("workflow.step_timeout", cfg.Workflow.StepTimeout).
		Int("guard.max_retries", cfg.Guard.MaxRetries).
		Msg("configuration loaded and unmarshaled")

	// Validate the configuration
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.loom/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		// Global config doesn't exist or home dir unavailable, skip silently
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
// Returns empty string and false if the home directory cannot be determined
// or the config file does not exist.
func getGlobalConfigPathIfExists() (string, bool) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(globalDir, constants.GlobalConfigName)
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}

	return globalConfigPath, true
}

// loadProjectConfig attempts to load the project config file (.loom/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		// Project config doesn't exist, skip silently
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// The overrides parameter contains values from CLI flags which have the
// highest precedence in the configuration hierarchy.
//
// Only non-zero values in overrides are applied. Zero values are ignored
// to allow partial overrides.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	// Load base configuration first
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	// Apply overrides if provided
	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	// Re-validate after applying overrides
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// This function allows precise control over which config files are loaded.
//
// projectConfigPath is the path to project-level config (higher priority).
// globalConfigPath is the path to global config (lower priority).
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	// Load global config first (lower precedence)
	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	// Load project config (higher precedence, merges over global)
	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	// Backend defaults
	v.SetDefault("backend.default", "claude")
	v.SetDefault("backend.model", "")
	v.SetDefault("backend.api_key_env_vars", map[string]string{
		"claude": "ANTHROPIC_API_KEY",
		"gemini": "GEMINI_API_KEY",
	})
	v.SetDefault("backend.generate_timeout", "2m")
	v.SetDefault("backend.tool_timeout", "10m")

	// Workflow defaults
	v.SetDefault("workflow.auto_continue", false)
	v.SetDefault("workflow.step_timeout", "15m")
	v.SetDefault("workflow.definitions", map[string]string{})
	v.SetDefault("workflow.lock_timeout", "5s")

	// Generation defaults
	v.SetDefault("generation.output_dir", "src/components")
	v.SetDefault("generation.framework", "react")
	v.SetDefault("generation.styling", "tailwind")
	v.SetDefault("generation.concurrency", 1)

	// Guard defaults
	v.SetDefault("guard.max_retries", constants.DefaultGuardRetries)
	v.SetDefault("guard.diagnosis_timeout", "1m")

	// Retry defaults
	v.SetDefault("retry.max_attempts", constants.MaxRetryAttempts)
	v.SetDefault("retry.initial_backoff", "1s")
	v.SetDefault("retry.backoff_multiplier", constants.BackoffMultiplier)
}

// applyOverrides merges non-zero override values into the config.
// Only non-zero values are applied to allow partial overrides.
//
// IMPORTANT: Boolean fields (Workflow.AutoContinue) cannot be overridden to
// false using this function because Go's zero value for bool is false, making
// it impossible to distinguish "explicitly set to false" from "not set". CLI
// implementations should handle boolean flags separately:
//
//	// Example CLI handling for bool flags:
//	if cmd.Flags().Changed("auto") {
//	    cfg.Workflow.AutoContinue = autoFlag  // Use flag value directly
//	}
func applyOverrides(cfg, overrides *Config) {
	// Backend overrides
	applyBackendOverrides(cfg, overrides)

	// Workflow overrides
	if overrides.Workflow.StepTimeout != 0 {
		cfg.Workflow.StepTimeout = overrides.Workflow.StepTimeout
	}
	// AutoContinue is a bool - we can't distinguish false from unset,
	// so we don't override it here. Use explicit flag handling in CLI.
	cfg.Workflow.Definitions = mergeStringMaps(cfg.Workflow.Definitions, overrides.Workflow.Definitions)
	if overrides.Workflow.LockTimeout != 0 {
		cfg.Workflow.LockTimeout = overrides.Workflow.LockTimeout
	}

	// Generation overrides
	applyGenerationOverrides(cfg, overrides)

	// Guard overrides
	if overrides.Guard.MaxRetries != 0 {
		cfg.Guard.MaxRetries = overrides.Guard.MaxRetries
	}
	if overrides.Guard.Backend != "" {
		cfg.Guard.Backend = overrides.Guard.Backend
	}
	if overrides.Guard.Model != "" {
		cfg.Guard.Model = overrides.Guard.Model
	}
	if overrides.Guard.DiagnosisTimeout != 0 {
		cfg.Guard.DiagnosisTimeout = overrides.Guard.DiagnosisTimeout
	}

	// Retry overrides
	if overrides.Retry.MaxAttempts != 0 {
		cfg.Retry.MaxAttempts = overrides.Retry.MaxAttempts
	}
	if overrides.Retry.InitialBackoff != 0 {
		cfg.Retry.InitialBackoff = overrides.Retry.InitialBackoff
	}
	if overrides.Retry.BackoffMultiplier != 0 {
		cfg.Retry.BackoffMultiplier = overrides.Retry.BackoffMultiplier
	}
}

// applyBackendOverrides applies backend-related overrides to the config.
// This is extracted from applyOverrides to reduce cognitive complexity.
func applyBackendOverrides(cfg, overrides *Config) {
	if overrides.Backend.Default != "" {
		cfg.Backend.Default = overrides.Backend.Default
	}
	if overrides.Backend.Model != "" {
		cfg.Backend.Model = overrides.Backend.Model
	}
	cfg.Backend.APIKeyEnvVars = mergeStringMaps(cfg.Backend.APIKeyEnvVars, overrides.Backend.APIKeyEnvVars)
	if overrides.Backend.GenerateTimeout != 0 {
		cfg.Backend.GenerateTimeout = overrides.Backend.GenerateTimeout
	}
	if overrides.Backend.ToolTimeout != 0 {
		cfg.Backend.ToolTimeout = overrides.Backend.ToolTimeout
	}
}

// applyGenerationOverrides applies generation-related overrides to the config.
// This is extracted from applyOverrides to reduce cognitive complexity.
func applyGenerationOverrides(cfg, overrides *Config) {
	if overrides.Generation.OutputDir != "" {
		cfg.Generation.OutputDir = overrides.Generation.OutputDir
	}
	if overrides.Generation.Framework != "" {
		cfg.Generation.Framework = overrides.Generation.Framework
	}
	if overrides.Generation.Styling != "" {
		cfg.Generation.Styling = overrides.Generation.Styling
	}
	if overrides.Generation.Concurrency != 0 {
		cfg.Generation.Concurrency = overrides.Generation.Concurrency
	}
}

// LoadForProject loads configuration for a specific project directory.
// Config is loaded in order (highest precedence first):
//  1. Environment variables (LOOM_* prefix)
//  2. Project config (projectPath/.loom/config.yaml)
//  3. Global config (~/.loom/config.yaml)
//  4. Built-in defaults
//
// This is used when loom operates on a project other than the current
// working directory, such as `loom workflow continue <path>`.
func LoadForProject(_ context.Context, projectPath string) (*Config, error) {
	v := newViperInstance()

	// Load global config first (lower precedence)
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	// Load the project's config (higher precedence, merges over global)
	projectConfigPath := filepath.Join(projectPath, constants.ProjectStateDir, constants.ProjectConfigName)
	if fileExists(projectConfigPath) {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
