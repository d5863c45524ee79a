package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// fastSleep replaces timeSleep with an immediately firing channel so retry
// loops run without real waiting. Returns a restore function.
func fastSleep(t *testing.T) *[]time.Duration {
	t.Helper()

	var waits []time.Duration
	original := timeSleep
	timeSleep = func(d interface{ Nanoseconds() int64 }) <-chan time.Time {
		waits = append(waits, time.Duration(d.Nanoseconds()))
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	t.Cleanup(func() {
		timeSleep = original
	})

	return &waits
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, constants.MaxRetryAttempts, p.MaxAttempts)
	assert.Equal(t, constants.InitialBackoff, p.InitialBackoff)
	assert.InDelta(t, constants.BackoffMultiplier, p.BackoffMultiplier, 0.0001)
	assert.Nil(t, p.Retryable)
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    250 * time.Millisecond,
		BackoffMultiplier: 1.5,
	})

	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialBackoff)
	assert.InDelta(t, 1.5, p.BackoffMultiplier, 0.0001)
}

func TestPolicy_WithRetryable(t *testing.T) {
	base := DefaultPolicy()
	derived := base.WithRetryable(func(error) bool { return false })

	assert.Nil(t, base.Retryable, "original policy must not be mutated")
	assert.NotNil(t, derived.Retryable)
}

func TestPolicy_Backoff(t *testing.T) {
	p := Policy{InitialBackoff: time.Second, BackoffMultiplier: 2.0}

	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
}

func TestPolicy_Do_SucceedsFirstAttempt(t *testing.T) {
	fastSleep(t)

	calls := 0
	p := DefaultPolicy()

	err := p.Do(context.Background(), zerolog.Nop(), "generate", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "successful operation should run exactly once")
}

func TestPolicy_Do_RetriesUntilSuccess(t *testing.T) {
	waits := fastSleep(t)

	errTransient := errors.New("backend hiccup")
	calls := 0
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Second, BackoffMultiplier: 2.0}

	err := p.Do(context.Background(), zerolog.Nop(), "generate", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls, "should retry twice before succeeding")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits, "backoff should grow by the multiplier")
}

func TestPolicy_Do_ExhaustsAttempts(t *testing.T) {
	fastSleep(t)

	errAlways := errors.New("backend down")
	calls := 0
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, BackoffMultiplier: 2.0}

	err := p.Do(context.Background(), zerolog.Nop(), "generate", func(context.Context) error {
		calls++
		return errAlways
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "should attempt exactly MaxAttempts times")
	assert.ErrorIs(t, err, loomerrors.ErrMaxRetriesExceeded)
	assert.ErrorIs(t, err, errAlways, "last attempt error should remain in the chain")
}

func TestPolicy_Do_NonRetryableStopsImmediately(t *testing.T) {
	fastSleep(t)

	errFatal := errors.New("capability mismatch")
	calls := 0
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, BackoffMultiplier: 2.0}
	p = p.WithRetryable(func(err error) bool { return !errors.Is(err, errFatal) })

	err := p.Do(context.Background(), zerolog.Nop(), "generate", func(context.Context) error {
		calls++
		return errFatal
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable error should stop the loop")
	assert.ErrorIs(t, err, errFatal)
	assert.NotErrorIs(t, err, loomerrors.ErrMaxRetriesExceeded, "short-circuit should not report exhaustion")
}

func TestPolicy_Do_ContextErrorsNeverRetried(t *testing.T) {
	fastSleep(t)

	tests := []struct {
		name string
		err  error
	}{
		{"canceled", context.Canceled},
		{"deadline exceeded", context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			p := DefaultPolicy()

			err := p.Do(context.Background(), zerolog.Nop(), "generate", func(context.Context) error {
				calls++
				return tt.err
			})

			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPolicy_Do_CanceledContextStopsBackoffWait(t *testing.T) {
	// Leave the real timeSleep in place with a long backoff; cancellation
	// must win the select.
	errTransient := errors.New("backend hiccup")
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Hour, BackoffMultiplier: 2.0}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := p.Do(ctx, zerolog.Nop(), "generate", func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation during backoff should stop further attempts")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_Do_ZeroValueRunsOnce(t *testing.T) {
	fastSleep(t)

	errAlways := errors.New("failure")
	calls := 0
	var p Policy

	err := p.Do(context.Background(), zerolog.Nop(), "generate", func(context.Context) error {
		calls++
		return errAlways
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "zero-value policy should still run the operation once")
	assert.ErrorIs(t, err, loomerrors.ErrMaxRetriesExceeded)
}
