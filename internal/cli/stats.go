package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/router"
	"github.com/loomworks/loom/internal/tui"
)

// newStatsCmd creates the stats command showing router performance
// aggregates for the current process.
func newStatsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show backend routing performance statistics",
		Long: `Show backend routing performance statistics.

Metrics live in memory and reset between invocations, so a standalone
'loom stats' reports an empty set. Commands that call the backend, such
as 'loom generate components', print these aggregates themselves when
they finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}
			return renderStats(out, flags.Output, deps.router.Metrics())
		},
	}
}

// renderStats prints router metrics aggregates: one row per operation
// category plus a global row. Text mode prints a notice when nothing
// was recorded; JSON mode always emits the full structure.
func renderStats(out tui.Output, format string, metrics *router.MetricsCollector) error {
	categories := metrics.Categories()
	global := metrics.GlobalStats()

	if format == OutputJSON {
		perCategory := make(map[string]domain.CategoryStats, len(categories))
		for _, kind := range categories {
			perCategory[string(kind)] = metrics.Stats(kind)
		}
		return out.JSON(map[string]any{
			"global":     global,
			"categories": perCategory,
		})
	}

	if global.Count == 0 {
		out.Info("no metrics recorded in this invocation")
		return nil
	}

	rows := make([][]string, 0, len(categories)+1)
	for _, kind := range categories {
		rows = append(rows, statsRow(string(kind), metrics.Stats(kind)))
	}
	rows = append(rows, statsRow("all", global))
	out.Table([]string{"CATEGORY", "CALLS", "SUCCESS", "AVG", "MIN", "MAX"}, rows)
	return nil
}

// printRunStats appends the invocation's backend aggregates to a
// long-running command's text output. JSON output stays clean for the
// command's own payload.
func printRunStats(out tui.Output, format string, metrics *router.MetricsCollector) {
	if format != OutputText || metrics.GlobalStats().Count == 0 {
		return
	}
	out.Info("backend calls this run:")
	_ = renderStats(out, format, metrics)
}

func statsRow(name string, stats domain.CategoryStats) []string {
	return []string{
		name,
		fmt.Sprintf("%d", stats.Count),
		fmt.Sprintf("%.0f%%", stats.SuccessRate*100),
		formatStatDuration(stats.AvgDuration),
		formatStatDuration(stats.MinDuration),
		formatStatDuration(stats.MaxDuration),
	}
}

func formatStatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
