package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
)

// FormatUpdate renders one shared-context event as a single feed line:
// icon, relative timestamp, reporter, and message.
//
// Example: "✓ 2 minutes ago  pipeline  generated requirements document"
func FormatUpdate(update domain.BrainUpdate) string {
	icon := UpdateKindIcon(update.Type)
	color, ok := UpdateKindColors()[update.Type]
	if !ok {
		color = ColorMuted
	}
	iconStyle := lipgloss.NewStyle().Foreground(color)

	when := RelativeTime(update.Timestamp)
	reporter := update.Agent
	if update.Role != "" {
		reporter = fmt.Sprintf("%s (%s)", update.Agent, update.Role)
	}

	return fmt.Sprintf("%s %s  %s  %s",
		iconStyle.Render(icon),
		StyleDim.Render(when),
		StyleBold.Render(reporter),
		update.Message)
}

// FormatFeed renders the newest events first, at most limit lines.
// A limit of zero or less means all events.
func FormatFeed(updates []domain.BrainUpdate, limit int) string {
	if limit <= 0 || limit > len(updates) {
		limit = len(updates)
	}

	lines := make([]string, 0, limit)
	for i := len(updates) - 1; i >= len(updates)-limit; i-- {
		lines = append(lines, FormatUpdate(updates[i]))
	}
	return strings.Join(lines, "\n")
}

// FormatBrainStatus renders the status line with icon, colored status word,
// and the current narrative.
func FormatBrainStatus(status constants.BrainStatus, narrative string) string {
	color, ok := BrainStatusColors()[status]
	if !ok {
		color = ColorMuted
	}
	statusStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	line := fmt.Sprintf("%s %s", BrainStatusIcon(status), statusStyle.Render(status.String()))
	if narrative != "" {
		line += "  " + StyleDim.Render(narrative)
	}
	return line
}
