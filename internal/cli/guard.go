package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/tui"
)

// newGuardCmd creates the guard command, which runs a shell command under
// the self-healing retry loop.
func newGuardCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "guard -- <command...>",
		Short: "Run a command with AI diagnosis and automatic retries",
		Long: `Run a command with AI diagnosis and automatic retries.

On failure the guard asks the configured backend to diagnose the output.
A FIX response applies a suggested command before retrying, a SKIP response
retries as-is, and an ABORT response stops immediately. Exits 0 when the
command eventually succeeds and 1 when every attempt fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			command := strings.Join(args, " ")
			if deps.guard.Run(cmd.Context(), command, deps.projectDir) {
				out.Success("command succeeded")
				return nil
			}
			return fmt.Errorf("%w: %s", errors.ErrMaxRetriesExceeded, command)
		},
	}
}
