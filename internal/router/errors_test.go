package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loomerrors "github.com/loomworks/loom/internal/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCategory  Category
		wantRetryable bool
	}{
		{
			name:          "permission sentinel",
			err:           fmt.Errorf("%w: claude rejected the call", loomerrors.ErrPermissionDenied),
			wantCategory:  CategoryPermissionDenied,
			wantRetryable: true,
		},
		{
			name:          "timeout sentinel",
			err:           fmt.Errorf("%w: claude", loomerrors.ErrTimeout),
			wantCategory:  CategoryTimeout,
			wantRetryable: true,
		},
		{
			name:          "context overflow sentinel",
			err:           fmt.Errorf("%w: gemini", loomerrors.ErrContextOverflow),
			wantCategory:  CategoryContextOverflow,
			wantRetryable: true,
		},
		{
			name:          "agent sdk sentinel",
			err:           fmt.Errorf("%w: gemini cannot execute tools", loomerrors.ErrAgentSDKRequired),
			wantCategory:  CategoryAgentSDKRequired,
			wantRetryable: false,
		},
		{
			name:          "selection sentinel",
			err:           fmt.Errorf("%w: no backend clients registered", loomerrors.ErrClientSelectionFailed),
			wantCategory:  CategoryClientSelectionFailed,
			wantRetryable: false,
		},
		{
			name:          "permission substring",
			err:           errors.New("request failed: 401 unauthorized"),
			wantCategory:  CategoryPermissionDenied,
			wantRetryable: true,
		},
		{
			name:          "timeout substring",
			err:           errors.New("operation timed out waiting for response"),
			wantCategory:  CategoryTimeout,
			wantRetryable: true,
		},
		{
			name:          "overflow substring",
			err:           errors.New("prompt is too long for the model"),
			wantCategory:  CategoryContextOverflow,
			wantRetryable: true,
		},
		{
			name:          "unmatched error",
			err:           errors.New("disk quota exceeded"),
			wantCategory:  CategoryUnknown,
			wantRetryable: false,
		},
		{
			name:          "sentinel wrapped through the retry exhaustion error",
			err:           fmt.Errorf("%w: %w", loomerrors.ErrMaxRetriesExceeded, fmt.Errorf("%w: claude", loomerrors.ErrTimeout)),
			wantCategory:  CategoryTimeout,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routed := Normalize(tt.err)
			require.NotNil(t, routed)
			assert.Equal(t, tt.wantCategory, routed.Category)
			assert.Equal(t, tt.wantRetryable, routed.Retryable)
			assert.ErrorIs(t, routed, tt.err)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Normalize(nil))
	})

	t.Run("already normalized errors pass through", func(t *testing.T) {
		inner := &RoutedError{Category: CategoryTimeout, Retryable: true, Err: errors.New("slow")}
		wrapped := fmt.Errorf("while generating: %w", inner)

		assert.Same(t, inner, Normalize(wrapped))
	})
}

func TestRoutedErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("%w: claude", loomerrors.ErrTimeout)
	routed := Normalize(cause)

	assert.ErrorIs(t, routed, loomerrors.ErrTimeout)
	assert.Contains(t, routed.Error(), "TIMEOUT")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("%w: x", loomerrors.ErrTimeout)))
	assert.False(t, IsRetryable(fmt.Errorf("%w: x", loomerrors.ErrAgentSDKRequired)))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("mystery")))
}
