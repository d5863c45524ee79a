package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/tui"
)

// sortedArtifactKinds returns artifact kinds in stable alphabetical order.
func sortedArtifactKinds(artifacts map[string]domain.BrainArtifact) []string {
	kinds := make([]string, 0, len(artifacts))
	for kind := range artifacts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// feedLimit caps the number of events shown by 'brain show'.
const feedLimit = 20

// newBrainCmd creates the brain command group for inspecting and updating
// the shared project context.
func newBrainCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brain",
		Short: "Inspect and update the shared project context",
		Long: `Inspect and update the shared project context (the brain).

The brain lives at .loom/brain.json and records the project's status,
narrative, an append-only event log, and versioned artifacts. Every
subsystem reports through it, so it is the single place to look when
resuming work.`,
	}

	cmd.AddCommand(newBrainShowCmd(flags))
	cmd.AddCommand(newBrainStatusCmd(flags))
	cmd.AddCommand(newBrainNoteCmd(flags))
	cmd.AddCommand(newBrainArtifactCmd(flags))
	cmd.AddCommand(newBrainResetCmd(flags))

	return cmd
}

func newBrainShowCmd(flags *GlobalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the brain with its recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			b := deps.brain.Get(cmd.Context())
			if flags.Output == OutputJSON {
				return out.JSON(b)
			}

			var md strings.Builder
			fmt.Fprintf(&md, "# Project brain (v%s)\n\n", b.Version)
			fmt.Fprintf(&md, "**Status:** %s\n\n", b.Status)
			if b.Narrative != "" {
				fmt.Fprintf(&md, "%s\n\n", b.Narrative)
			}
			if len(b.Artifacts) > 0 {
				fmt.Fprintf(&md, "**Artifacts:** %d tracked\n\n", len(b.Artifacts))
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), tui.RenderMarkdown(md.String()))

			feed := tui.FormatFeed(b.Updates, limit)
			if feed == "" {
				out.Info("no events recorded")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), feed)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", feedLimit, "maximum number of events to show")
	return cmd
}

func newBrainStatusCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the brain status and narrative",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			b := deps.brain.Get(cmd.Context())
			if flags.Output == OutputJSON {
				return out.JSON(map[string]any{
					"status":    b.Status,
					"narrative": b.Narrative,
					"version":   b.Version,
					"updates":   len(b.Updates),
					"artifacts": len(b.Artifacts),
				})
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tui.FormatBrainStatus(b.Status, b.Narrative))
			return nil
		},
	}
}

func newBrainNoteCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "note <message>",
		Short: "Append a user note to the brain's event log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			message := strings.Join(args, " ")
			update, err := deps.brain.AddUpdate(cmd.Context(), "user", "user", constants.UpdateKindThought, message, nil)
			if err != nil {
				return err
			}
			out.Success("note recorded (" + update.ID + ")")
			return nil
		},
	}
}

func newBrainArtifactCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Inspect brain artifacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tracked artifacts with versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			b := deps.brain.Get(cmd.Context())
			if flags.Output == OutputJSON {
				return out.JSON(b.Artifacts)
			}
			if len(b.Artifacts) == 0 {
				out.Info("no artifacts tracked")
				return nil
			}

			rows := make([][]string, 0, len(b.Artifacts))
			for _, kind := range sortedArtifactKinds(b.Artifacts) {
				art := b.Artifacts[kind]
				rows = append(rows, []string{
					kind,
					art.Path,
					fmt.Sprintf("%d", art.Version),
					tui.RelativeTime(art.LastUpdated),
				})
			}
			out.Table([]string{"KIND", "PATH", "VERSION", "UPDATED"}, rows)
			return nil
		},
	})

	return cmd
}

func newBrainResetCmd(flags *GlobalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the brain to its initial state",
		Long: `Reset the brain to its initial state.

The event log and artifact records are discarded; generated files on disk
are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if !force {
				confirmed, err := confirm("Reset the project brain?",
					"The event log and artifact records will be discarded.")
				if err != nil {
					return err
				}
				if !confirmed {
					out.Info("reset canceled")
					return nil
				}
			}

			if err := deps.brain.Reset(cmd.Context()); err != nil {
				return err
			}
			out.Success("brain reset to initial state")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
