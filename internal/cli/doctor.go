package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/loomworks/loom/internal/backend"
	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/tui"
)

// doctorCheck is the result of one environment probe.
type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details"`
}

// newDoctorCmd creates the doctor command, which probes the environment
// for everything loom needs.
func newDoctorCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment for required tools and configuration",
		Long: `Check the environment for required tools and configuration.

Probes the backend CLIs on PATH, API key environment variables, the
project directory, and the global loom home. Checks run in parallel and
every result is reported; a missing optional backend does not fail the
command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			checks := runDoctorChecks(deps.cfg, deps.projectDir)

			if flags.Output == OutputJSON {
				return out.JSON(checks)
			}

			healthy := true
			for _, check := range checks {
				if check.OK {
					out.Success(check.Name + ": " + check.Details)
					continue
				}
				healthy = false
				out.Warning(check.Name + ": " + check.Details)
			}
			if healthy {
				out.Success("environment looks good")
			} else {
				out.Info("some checks failed; loom may still work with the available backend")
			}
			return nil
		},
	}
}

// runDoctorChecks probes the environment concurrently and returns the
// results in a stable order.
func runDoctorChecks(cfg *config.Config, projectDir string) []doctorCheck {
	prober := backend.NewProber()

	var (
		mu     sync.Mutex
		checks []doctorCheck
	)
	add := func(c doctorCheck) {
		mu.Lock()
		defer mu.Unlock()
		checks = append(checks, c)
	}

	var g errgroup.Group

	for _, name := range []string{"claude", "gemini"} {
		g.Go(func() error {
			path, err := prober.Path(name)
			if err != nil {
				add(doctorCheck{Name: name + " CLI", Details: "not found on PATH"})
				return nil
			}
			add(doctorCheck{Name: name + " CLI", OK: true, Details: path})
			return nil
		})

		g.Go(func() error {
			envVar := cfg.Backend.GetAPIKeyEnvVar(name)
			if envVar == "" {
				add(doctorCheck{Name: name + " API key", Details: "no environment variable configured"})
				return nil
			}
			if os.Getenv(envVar) == "" {
				add(doctorCheck{Name: name + " API key", Details: envVar + " is not set (the CLI may hold its own credentials)"})
				return nil
			}
			add(doctorCheck{Name: name + " API key", OK: true, Details: envVar + " is set"})
			return nil
		})
	}

	g.Go(func() error {
		loomDir := filepath.Join(projectDir, constants.ProjectStateDir)
		if info, err := os.Stat(loomDir); err == nil && info.IsDir() {
			add(doctorCheck{Name: "project", OK: true, Details: loomDir})
			return nil
		}
		add(doctorCheck{Name: "project", Details: "no " + constants.ProjectStateDir + " directory; run 'loom init'"})
		return nil
	})

	g.Go(func() error {
		home, err := getLoomHome()
		if err != nil {
			add(doctorCheck{Name: "loom home", Details: err.Error()})
			return nil
		}
		add(doctorCheck{Name: "loom home", OK: true, Details: home})
		return nil
	})

	g.Go(func() error {
		if cfg.Backend.Default != "claude" && cfg.Backend.Default != "gemini" {
			add(doctorCheck{Name: "default backend", Details: fmt.Sprintf("unknown backend %q", cfg.Backend.Default)})
			return nil
		}
		add(doctorCheck{Name: "default backend", OK: true, Details: cfg.Backend.Default})
		return nil
	})

	_ = g.Wait()

	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return checks
}
