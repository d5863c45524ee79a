package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/tui"
)

// newConfigCmd creates the config command group.
func newConfigCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Long: `Inspect the effective configuration.

Settings are layered: built-in defaults, then the global file at
~/.loom/config.yaml, then the project file at .loom/config.yaml, then
LOOM_ environment variables.`,
	}

	cmd.AddCommand(newConfigShowCmd(flags))
	cmd.AddCommand(newConfigPathCmd(flags))

	return cmd
}

func newConfigShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration after all layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if flags.Output == OutputJSON {
				return out.JSON(deps.cfg)
			}

			data, err := yaml.Marshal(deps.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigPathCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show where configuration files are read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)

			globalPath, err := config.GlobalConfigPath()
			if err != nil {
				return err
			}
			projectPath := config.ProjectConfigPath()

			if flags.Output == OutputJSON {
				return out.JSON(map[string]string{
					"global":  globalPath,
					"project": projectPath,
				})
			}
			out.Table([]string{"SCOPE", "PATH"}, [][]string{
				{"global", globalPath},
				{"project", projectPath},
			})
			return nil
		},
	}
}
