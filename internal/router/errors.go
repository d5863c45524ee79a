package router

import (
	stderrors "errors"
	"fmt"
	"strings"

	loomerrors "github.com/loomworks/loom/internal/errors"
)

// Category is the normalized failure class of one routed call.
type Category string

// Router error taxonomy categories.
const (
	// CategoryPermissionDenied covers authentication and authorization
	// rejections. Retryable because keys are often fixed mid-run.
	CategoryPermissionDenied Category = "PERMISSION_DENIED"

	// CategoryTimeout covers deadline overruns.
	CategoryTimeout Category = "TIMEOUT"

	// CategoryContextOverflow covers context-window rejections.
	CategoryContextOverflow Category = "CONTEXT_OVERFLOW"

	// CategoryAgentSDKRequired covers tool-requiring calls routed to a
	// client that cannot execute tools. Never retryable.
	CategoryAgentSDKRequired Category = "AGENT_SDK_REQUIRED"

	// CategoryClientSelectionFailed covers factory selection failures.
	// Never retryable.
	CategoryClientSelectionFailed Category = "CLIENT_SELECTION_FAILED"

	// CategoryUnknown covers everything else. Never retryable.
	CategoryUnknown Category = "UNKNOWN_ERROR"
)

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// retryableCategories maps each category to its retry eligibility.
//
//nolint:gochecknoglobals // Constant-like lookup table
var retryableCategories = map[Category]bool{
	CategoryPermissionDenied:      true,
	CategoryTimeout:               true,
	CategoryContextOverflow:       true,
	CategoryAgentSDKRequired:      false,
	CategoryClientSelectionFailed: false,
	CategoryUnknown:               false,
}

// RoutedError is the normalized form every router failure takes.
// Callers branch on Category or use errors.Is against the wrapped
// sentinel; both see the same classification.
type RoutedError struct {
	// Category is the normalized failure class.
	Category Category

	// Retryable reports whether another attempt could succeed.
	Retryable bool

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RoutedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Err.Error())
}

// Unwrap returns the underlying error.
func (e *RoutedError) Unwrap() error {
	return e.Err
}

// Normalize classifies any error into a RoutedError. Sentinel matches
// win; otherwise the message is inspected for known substrings. An
// already-normalized error passes through unchanged.
func Normalize(err error) *RoutedError {
	if err == nil {
		return nil
	}

	var routed *RoutedError
	if stderrors.As(err, &routed) {
		return routed
	}

	category := classifyError(err)
	return &RoutedError{
		Category:  category,
		Retryable: retryableCategories[category],
		Err:       err,
	}
}

// classifyError maps an error onto a taxonomy category. Typed sentinels
// are checked before the message substring fallback so wrapped backend
// errors classify exactly.
func classifyError(err error) Category {
	switch {
	case stderrors.Is(err, loomerrors.ErrPermissionDenied):
		return CategoryPermissionDenied
	case stderrors.Is(err, loomerrors.ErrTimeout):
		return CategoryTimeout
	case stderrors.Is(err, loomerrors.ErrContextOverflow):
		return CategoryContextOverflow
	case stderrors.Is(err, loomerrors.ErrAgentSDKRequired):
		return CategoryAgentSDKRequired
	case stderrors.Is(err, loomerrors.ErrClientSelectionFailed):
		return CategoryClientSelectionFailed
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "api key") ||
		strings.Contains(msg, "authentication"):
		return CategoryPermissionDenied
	case strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(msg, "context window") ||
		strings.Contains(msg, "context length") ||
		strings.Contains(msg, "too long"):
		return CategoryContextOverflow
	case strings.Contains(msg, "tool-capable") ||
		strings.Contains(msg, "agent sdk"):
		return CategoryAgentSDKRequired
	case strings.Contains(msg, "client selection"):
		return CategoryClientSelectionFailed
	default:
		return CategoryUnknown
	}
}

// IsRetryable reports whether an error's normalized category permits
// another attempt. It is the retry predicate the router's policy uses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Normalize(err).Retryable
}
