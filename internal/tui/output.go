package tui

import "io"

// Output provides methods for structured output to a terminal. Commands
// write user-facing messages through this interface so the same code path
// serves styled TTY output and machine-readable JSON.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error message.
	Error(err error)
	// Warning prints a warning message.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// Table prints tabular data with aligned columns.
	Table(headers []string, rows [][]string)
	// JSON outputs a value as formatted JSON.
	JSON(v any) error
}

// NewOutput creates the appropriate output for the requested format.
// Format "json" produces structured JSON; anything else gets styled text.
func NewOutput(w io.Writer, format string) Output {
	if format == "json" {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}
