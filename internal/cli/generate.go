package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomworks/loom/internal/tui"
)

// newGenerateCmd creates the generate command group covering the staged
// generation pipeline.
func newGenerateCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run stages of the project generation pipeline",
		Long: `Run stages of the project generation pipeline.

Stages build on each other: requirements feed the type definitions, which
feed design tokens, the component inventory, and finally the component
files. Each stage records its artifact in the project brain so later
stages and resumed sessions see it.`,
	}

	cmd.AddCommand(newGenerateRequirementsCmd(flags))
	cmd.AddCommand(newGenerateTypesCmd(flags))
	cmd.AddCommand(newGenerateTokensCmd(flags))
	cmd.AddCommand(newGenerateInventoryCmd(flags))
	cmd.AddCommand(newGenerateComponentsCmd(flags))
	cmd.AddCommand(newGenerateComponentCmd(flags))
	cmd.AddCommand(newGenerateRefineCmd(flags))

	return cmd
}

func newGenerateRequirementsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "requirements <description>",
		Short: "Generate a requirements document from a project pitch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			description := strings.Join(args, " ")
			if err := deps.pipeline.Requirements(cmd.Context(), description); err != nil {
				return err
			}
			out.Success("requirements written to docs/requirements.md")
			return nil
		},
	}
}

func newGenerateTypesCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Generate type definitions from the requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if err := deps.pipeline.Types(cmd.Context()); err != nil {
				return err
			}
			out.Success("type definitions written to src/types/index.ts")
			return nil
		},
	}
}

func newGenerateTokensCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "Generate design tokens from the requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if err := deps.pipeline.Tokens(cmd.Context()); err != nil {
				return err
			}
			out.Success("design tokens written to src/styles/tokens.json")
			return nil
		},
	}
}

func newGenerateInventoryCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Generate the component inventory",
		Long: `Generate the component inventory.

The inventory is a prioritized list of components derived from the
requirements and type definitions. 'loom generate components' consumes it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if err := deps.pipeline.Inventory(cmd.Context()); err != nil {
				return err
			}

			specs, err := deps.pipeline.LoadInventory(cmd.Context())
			if err != nil {
				return err
			}

			if flags.Output == OutputJSON {
				return out.JSON(specs)
			}
			rows := make([][]string, 0, len(specs))
			for _, spec := range specs {
				rows = append(rows, []string{spec.Name, fmt.Sprintf("%d", spec.Priority), spec.Description})
			}
			out.Table([]string{"COMPONENT", "PRIORITY", "DESCRIPTION"}, rows)
			return nil
		},
	}
}

func newGenerateComponentsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "Generate every component in the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if err := deps.pipeline.Components(cmd.Context()); err != nil {
				return err
			}
			out.Success("component generation finished")
			printRunStats(out, flags.Output, deps.router.Metrics())
			return nil
		},
	}
}

func newGenerateComponentCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "component <name> [description]",
		Short: "Generate a single component by name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			description := ""
			if len(args) > 1 {
				description = args[1]
			}

			if err := deps.pipeline.Component(cmd.Context(), args[0], description); err != nil {
				return err
			}
			out.Success("component " + args[0] + " generated")
			return nil
		},
	}
}

func newGenerateRefineCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "refine <file> <instruction>",
		Short: "Refine an existing generated file",
		Long: `Refine an existing generated file in place.

The file path is relative to the project root and must stay inside it.
The instruction describes the change to make.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			instruction := strings.Join(args[1:], " ")
			if err := deps.pipeline.Refine(cmd.Context(), args[0], instruction); err != nil {
				return err
			}
			out.Success("refined " + args[0])
			return nil
		},
	}
}
