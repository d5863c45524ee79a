// Package tui provides terminal output components for loom.
//
// This package provides a centralized style system using Lip Gloss for
// consistent styling. All colors use AdaptiveColor for light/dark terminal
// support. Call CheckNoColor() at the start of commands that output styled
// text to respect the NO_COLOR environment variable.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/loomworks/loom/internal/constants"
)

//nolint:gochecknoglobals // Intentional package-level constants for TUI styling API
var (
	// ColorPrimary is blue, used for active states and primary actions.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for success states and completed items.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for warning states and attention-required items.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for error states and failed items.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for dim/inactive states and secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies dim/faint formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleUnderline applies underline formatting to text.
	StyleUnderline = lipgloss.NewStyle().Underline(true)
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles using AdaptiveColor for
// light/dark terminal support.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// CheckNoColor respects the NO_COLOR environment variable.
// Call this at the start of commands that output styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns true if the terminal supports colors.
// Returns false if NO_COLOR is set (any value including empty string) or
// TERM=dumb. This follows the NO_COLOR standard: https://no-color.org/
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// BrainStatusColors returns the semantic color definitions for brain statuses.
func BrainStatusColors() map[constants.BrainStatus]lipgloss.AdaptiveColor {
	return map[constants.BrainStatus]lipgloss.AdaptiveColor{
		constants.BrainStatusIdle:         {Light: "#585858", Dark: "#6C6C6C"}, // Gray
		constants.BrainStatusThinking:     {Light: "#0087AF", Dark: "#00D7FF"}, // Blue
		constants.BrainStatusImplementing: {Light: "#0087AF", Dark: "#00D7FF"}, // Blue
		constants.BrainStatusPaused:       {Light: "#AF8700", Dark: "#FFD700"}, // Yellow
	}
}

// BrainStatusIcon returns the icon for a given brain status. Status displays
// keep triple redundancy: icon + color + text.
func BrainStatusIcon(status constants.BrainStatus) string {
	icons := map[constants.BrainStatus]string{
		constants.BrainStatusIdle:         "○",
		constants.BrainStatusThinking:     "◌",
		constants.BrainStatusImplementing: "●",
		constants.BrainStatusPaused:       "⏸",
	}
	if icon, ok := icons[status]; ok {
		return icon
	}
	return "?"
}

// UpdateKindIcon returns the icon for a shared-context event kind.
func UpdateKindIcon(kind constants.UpdateKind) string {
	icons := map[constants.UpdateKind]string{
		constants.UpdateKindThought:    "◌",
		constants.UpdateKindAction:     "▸",
		constants.UpdateKindError:      "✗",
		constants.UpdateKindCompletion: "✓",
	}
	if icon, ok := icons[kind]; ok {
		return icon
	}
	return "·"
}

// UpdateKindColors returns the semantic color for each event kind.
func UpdateKindColors() map[constants.UpdateKind]lipgloss.AdaptiveColor {
	return map[constants.UpdateKind]lipgloss.AdaptiveColor{
		constants.UpdateKindThought:    ColorMuted,
		constants.UpdateKindAction:     ColorPrimary,
		constants.UpdateKindError:      ColorError,
		constants.UpdateKindCompletion: ColorSuccess,
	}
}
