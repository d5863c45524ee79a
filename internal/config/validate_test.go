package config

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loomerrors "github.com/loomworks/loom/internal/errors"
)

func TestValidate_NilConfig(t *testing.T) {
	err := Validate(nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, loomerrors.ErrConfigNil)
}

func TestValidate_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	err := Validate(cfg)

	assert.NoError(t, err, "default configuration must always validate")
}

func TestValidate_MinimumBoundaryValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Guard.MaxRetries = 0
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.BackoffMultiplier = 1.0
	cfg.Generation.Concurrency = 1

	err := Validate(cfg)

	assert.NoError(t, err, "minimum boundary values should be valid")
}

func TestValidate_MaximumBoundaryValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Guard.MaxRetries = 10
	cfg.Retry.MaxAttempts = 10
	cfg.Generation.Concurrency = 8

	err := Validate(cfg)

	assert.NoError(t, err, "maximum boundary values should be valid")
}

func TestValidate_ErrorWrapping(t *testing.T) {
	// Each section failure must unwrap to its sentinel so callers can
	// classify config problems with errors.Is.
	tests := []struct {
		name     string
		modify   func(*Config)
		sentinel error
	}{
		{
			name:     "backend sentinel",
			modify:   func(c *Config) { c.Backend.Default = "unknown" },
			sentinel: loomerrors.ErrConfigInvalidBackend,
		},
		{
			name:     "workflow sentinel",
			modify:   func(c *Config) { c.Workflow.StepTimeout = 0 },
			sentinel: loomerrors.ErrConfigInvalidWorkflow,
		},
		{
			name:     "generation sentinel",
			modify:   func(c *Config) { c.Generation.Concurrency = 0 },
			sentinel: loomerrors.ErrConfigInvalidGeneration,
		},
		{
			name:     "guard sentinel",
			modify:   func(c *Config) { c.Guard.MaxRetries = -1 },
			sentinel: loomerrors.ErrConfigInvalidGuard,
		},
		{
			name:     "retry sentinel",
			modify:   func(c *Config) { c.Retry.MaxAttempts = 0 },
			sentinel: loomerrors.ErrConfigInvalidBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)

			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.sentinel), "error should wrap the section sentinel")
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	// Validation reports the first failing section in declaration order.
	cfg := DefaultConfig()
	cfg.Backend.Default = "unknown"
	cfg.Guard.MaxRetries = -1

	err := Validate(cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, loomerrors.ErrConfigInvalidBackend)
	assert.NotErrorIs(t, err, loomerrors.ErrConfigInvalidGuard)
}
