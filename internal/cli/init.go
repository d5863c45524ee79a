package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/loomworks/loom/internal/brain"
	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/tui"
)

// initSettings holds the choices written to the project config file.
type initSettings struct {
	Backend   string
	Framework string
	Styling   string
}

// newInitCmd creates the init command, which prepares a directory as a
// loom project.
func newInitCmd(flags *GlobalFlags) *cobra.Command {
	var (
		noInteractive bool
		backendName   string
		framework     string
		styling       string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the current directory as a loom project",
		Long: `Initialize the current directory as a loom project.

Creates the .loom state directory, seeds the project brain, and writes a
project configuration file. On a terminal an interactive wizard asks for
the backend, framework, and styling approach; pass --no-interactive (or
the individual flags) to skip it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)

			projectDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to determine working directory: %w", err)
			}

			stateDir := filepath.Join(projectDir, constants.ProjectStateDir)
			configPath := filepath.Join(projectDir, config.ProjectConfigPath())
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%w: %s", errors.ErrProjectExists, configPath)
			}

			defaults := config.DefaultConfig()
			settings := initSettings{
				Backend:   firstNonEmpty(backendName, defaults.Backend.Default),
				Framework: firstNonEmpty(framework, defaults.Generation.Framework),
				Styling:   firstNonEmpty(styling, defaults.Generation.Styling),
			}

			interactive := !noInteractive && term.IsTerminal(int(os.Stdin.Fd()))
			if interactive {
				if err := runInitWizard(&settings); err != nil {
					return err
				}
			}

			if err := os.MkdirAll(stateDir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}

			if err := writeProjectConfig(configPath, settings); err != nil {
				return err
			}

			store := brain.NewStore(projectDir, brain.WithLogger(Logger()))
			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}

			out.Success("initialized loom project in " + stateDir)
			out.Info("backend: " + settings.Backend + ", framework: " + settings.Framework + ", styling: " + settings.Styling)
			out.Info("next: loom generate requirements \"<project description>\"")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "skip the interactive wizard")
	cmd.Flags().StringVar(&backendName, "backend", "", "default backend CLI (claude|gemini)")
	cmd.Flags().StringVar(&framework, "framework", "", "target framework for generated components")
	cmd.Flags().StringVar(&styling, "styling", "", "styling approach for generated components")
	return cmd
}

// runInitWizard collects project defaults interactively. Values passed via
// flags are pre-selected.
func runInitWizard(settings *initSettings) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default backend").
				Description("Which AI CLI should loom prefer?").
				Options(
					huh.NewOption("Claude", "claude"),
					huh.NewOption("Gemini", "gemini"),
				).
				Value(&settings.Backend),
			huh.NewSelect[string]().
				Title("Framework").
				Description("Target framework for generated components.").
				Options(
					huh.NewOption("React", "react"),
					huh.NewOption("Vue", "vue"),
					huh.NewOption("Svelte", "svelte"),
				).
				Value(&settings.Framework),
			huh.NewSelect[string]().
				Title("Styling").
				Description("Styling approach for generated components.").
				Options(
					huh.NewOption("Tailwind CSS", "tailwind"),
					huh.NewOption("CSS modules", "css-modules"),
					huh.NewOption("Styled components", "styled-components"),
				).
				Value(&settings.Styling),
		),
	).WithTheme(huh.ThemeCharm())

	return form.Run()
}

// writeProjectConfig writes the project-level configuration overlay.
func writeProjectConfig(path string, settings initSettings) error {
	doc := map[string]any{
		"backend": map[string]any{
			"default": settings.Backend,
		},
		"generation": map[string]any{
			"framework": settings.Framework,
			"styling":   settings.Styling,
		},
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
