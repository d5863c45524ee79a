// Package constants provides centralized constant values used throughout loom.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Timeout configurations for various operations.
const (
	// DefaultGenerateTimeout is the default maximum duration for a single
	// backend generation call. Complex component generation can take a while
	// on slower models, so this errs on the generous side.
	DefaultGenerateTimeout = 120 * time.Second

	// DefaultToolTimeout is the default maximum duration for tool-augmented
	// generation and multi-step workflow calls. These involve the backend
	// reading and writing project files, so they run longer than plain text.
	DefaultToolTimeout = 10 * time.Minute

	// DefaultStepTimeout is the default maximum duration for a single
	// workflow step command.
	DefaultStepTimeout = 15 * time.Minute

	// DefaultDiagnosisTimeout is the default maximum duration for a single
	// guard failure diagnosis call.
	DefaultDiagnosisTimeout = 1 * time.Minute

	// DefaultLockTimeout is the default maximum duration to wait for the
	// state file lock held by a competing loom process.
	DefaultLockTimeout = 5 * time.Second

	// ProbeCacheTTL is how long a backend availability probe result is
	// trusted before the binary is looked up again.
	ProbeCacheTTL = 5 * time.Minute
)

// Retry configuration defaults for recoverable operations.
const (
	// MaxRetryAttempts is the maximum number of retry attempts for
	// recoverable backend errors.
	MaxRetryAttempts = 3

	// InitialBackoff is the initial backoff duration before the first retry.
	// Subsequent retries use exponential backoff based on this value.
	InitialBackoff = 1 * time.Second

	// BackoffMultiplier is the factor applied to the backoff duration after
	// each failed attempt.
	BackoffMultiplier = 2.0

	// DefaultGuardRetries is the default retry budget for the self-healing
	// command executor. A command is attempted at most DefaultGuardRetries+1
	// times before the guard gives up.
	DefaultGuardRetries = 2
)

// Classification thresholds used by the client router.
const (
	// SimplePromptThreshold is the prompt length in characters below which a
	// plain text request is classified as simple.
	SimplePromptThreshold = 500

	// RichContextThreshold is the combined request size in characters above
	// which a component request with rich context is classified as complex.
	RichContextThreshold = 2000

	// TokenEstimateDivisor approximates tokens from character counts. The
	// estimate is ceil(chars / TokenEstimateDivisor) summed over all request
	// sections.
	TokenEstimateDivisor = 4

	// MetricsRingCapacity is the maximum number of performance metrics
	// retained per operation category. Older entries are evicted FIFO.
	MetricsRingCapacity = 100
)

// Log rotation settings for the global CLI log file.
const (
	// LogMaxSizeMB is the maximum size in megabytes before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age in days of a rotated file.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated files.
	LogCompress = true
)

// Schema version constants for data migration support.
const (
	// ProgressSchemaVersion is the current version of the persisted workflow
	// progress JSON schema.
	ProgressSchemaVersion = "1.0"

	// BrainSeedVersion is the semantic version a freshly seeded shared
	// context document starts at.
	BrainSeedVersion = "1.0.0"
)
