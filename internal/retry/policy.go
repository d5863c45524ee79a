// Package retry provides the bounded retry policy shared by the client
// router and the self-healing command executor. A Policy is a value: copy
// it freely, override fields, and pass it down without synchronization.
package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/errors"
)

// timeSleep is a wrapper for time.After that can be overridden in tests.
// It returns a channel that receives after the given duration.
//
// The interface type `interface{ Nanoseconds() int64 }` is used instead of
// time.Duration to accept any duration-like type, providing flexibility for
// test mocking while maintaining type safety.
//
//nolint:gochecknoglobals // Required for test mocking
var timeSleep = func(d interface{ Nanoseconds() int64 }) <-chan time.Time {
	return time.After(time.Duration(d.Nanoseconds()))
}

// Policy describes a bounded retry schedule with a retryable-error predicate.
// Construct policies with DefaultPolicy or FromConfig rather than using the
// zero value, which would never retry.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier scales the wait after each failed attempt.
	BackoffMultiplier float64

	// Retryable reports whether an error is worth another attempt.
	// When nil, every error except context cancellation is retried.
	Retryable func(error) bool
}

// DefaultPolicy returns the built-in retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       constants.MaxRetryAttempts,
		InitialBackoff:    constants.InitialBackoff,
		BackoffMultiplier: constants.BackoffMultiplier,
	}
}

// FromConfig builds a policy from the retry configuration section.
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:       cfg.MaxAttempts,
		InitialBackoff:    cfg.InitialBackoff,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}
}

// WithRetryable returns a copy of the policy using the given predicate.
func (p Policy) WithRetryable(pred func(error) bool) Policy {
	p.Retryable = pred
	return p
}

// Backoff returns the wait before the given retry (1-based: Backoff(1) is
// the wait after the first failed attempt).
func (p Policy) Backoff(retry int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < retry; i++ {
		d = time.Duration(float64(d) * p.BackoffMultiplier)
	}
	return d
}

// shouldRetry applies the predicate. Context cancellation is never retried
// regardless of the predicate.
func (p Policy) shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do runs fn until it succeeds, a non-retryable error occurs, the context
// is canceled, or the attempt budget is exhausted. Exhaustion is reported
// as ErrMaxRetriesExceeded wrapping the last attempt's error.
func (p Policy) Do(ctx context.Context, logger zerolog.Logger, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	backoff := p.InitialBackoff

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logger.Debug().
				Str("operation", op).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Msg("retrying operation")
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("operation", op).
					Int("attempt", attempt).
					Msg("operation succeeded after retry")
			}
			return nil
		}

		// Don't retry non-retryable errors
		if !p.shouldRetry(err) {
			logger.Debug().
				Err(err).
				Str("operation", op).
				Int("attempt", attempt).
				Msg("operation failed with non-retryable error")
			return err
		}

		lastErr = err
		if attempt < attempts {
			logger.Warn().
				Err(err).
				Str("operation", op).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Dur("backoff", backoff).
				Msg("operation failed, will retry after backoff")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timeSleep(backoff):
				backoff = time.Duration(float64(backoff) * p.BackoffMultiplier)
			}
		}
	}

	logger.Error().
		Err(lastErr).
		Str("operation", op).
		Int("max_attempts", attempts).
		Msg("operation failed after max retries")

	return fmt.Errorf("%w: %w", errors.ErrMaxRetriesExceeded, lastErr)
}
