package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/tui"
	"github.com/loomworks/loom/internal/workflow"
)

// newWorkflowCmd creates the workflow command group.
func newWorkflowCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage and run multi-step workflows",
		Long: `Manage and run multi-step workflows.

A workflow is a named, dependency-ordered list of shell-executable steps.
Progress is persisted after every step, so an interrupted workflow can be
resumed with 'loom workflow continue'.`,
	}

	cmd.AddCommand(newWorkflowListCmd(flags))
	cmd.AddCommand(newWorkflowDescribeCmd(flags))
	cmd.AddCommand(newWorkflowStartCmd(flags))
	cmd.AddCommand(newWorkflowContinueCmd(flags))
	cmd.AddCommand(newWorkflowStatusCmd(flags))
	cmd.AddCommand(newWorkflowStopCmd(flags))
	cmd.AddCommand(newWorkflowRegisterCmd(flags))

	return cmd
}

func newWorkflowListCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			defs := deps.registry.List()
			if flags.Output == OutputJSON {
				return out.JSON(defs)
			}

			rows := make([][]string, 0, len(defs))
			for _, def := range defs {
				rows = append(rows, []string{
					def.ID,
					def.Name,
					def.Category.String(),
					fmt.Sprintf("%d", len(def.Steps)),
					formatEstimate(def.EstimatedDuration),
				})
			}
			out.Table([]string{"ID", "NAME", "CATEGORY", "STEPS", "ESTIMATE"}, rows)
			return nil
		},
	}
}

func newWorkflowDescribeCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <workflow-id>",
		Short: "Show the steps and dependencies of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			def, err := deps.registry.Get(args[0])
			if err != nil {
				return err
			}

			if flags.Output == OutputJSON {
				return out.JSON(def)
			}

			_, _ = fmt.Fprint(cmd.OutOrStdout(), tui.RenderMarkdown(describeMarkdown(def)))
			return nil
		},
	}
}

// describeMarkdown renders a workflow definition as a markdown document.
func describeMarkdown(def *domain.WorkflowDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (`%s`)\n\n", def.Name, def.ID)
	if def.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", def.Description)
	}
	fmt.Fprintf(&b, "Category: %s · Estimated: %s\n\n", def.Category, formatEstimate(def.EstimatedDuration))

	fmt.Fprintf(&b, "## Steps\n\n")
	for i, step := range def.Steps {
		fmt.Fprintf(&b, "%d. **%s** (`%s`)\n", i+1, step.Name, step.ID)
		if step.Description != "" {
			fmt.Fprintf(&b, "   %s\n", step.Description)
		}
		fmt.Fprintf(&b, "   - command: `%s`\n", step.Command)
		if len(step.Dependencies) > 0 {
			fmt.Fprintf(&b, "   - depends on: %s\n", strings.Join(step.Dependencies, ", "))
		}
		if step.AutoContinue {
			fmt.Fprintf(&b, "   - auto-continue\n")
		}
		if step.Optional {
			fmt.Fprintf(&b, "   - optional\n")
		}
	}
	return b.String()
}

func newWorkflowStartCmd(flags *GlobalFlags) *cobra.Command {
	var auto bool

	cmd := &cobra.Command{
		Use:   "start <workflow-id>",
		Short: "Start a workflow in the current project",
		Long: `Start a workflow in the current project.

Refuses to start when an incomplete workflow is already in progress; stop
it first with 'loom workflow stop'. With --auto, steps marked auto-continue
chain without confirmation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			autoContinue := auto || deps.cfg.Workflow.AutoContinue
			outcome, err := deps.scheduler.Start(cmd.Context(), args[0], deps.projectDir, autoContinue)
			if err != nil {
				printStepFailure(cmd.Context(), deps, out, err)
				return err
			}
			return reportOutcome(cmd.Context(), deps, out, outcome, autoContinue)
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "execute auto-continue steps without confirmation")
	return cmd
}

func newWorkflowContinueCmd(flags *GlobalFlags) *cobra.Command {
	var auto bool
	var contextFlags []string

	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Continue the active workflow",
		Long: `Continue the active workflow.

The explicit invocation confirms the first pending step, which runs even
when it is not marked auto-continue. Subsequent steps chain per --auto.

Steps gated on project context can be unblocked by hand with --set, e.g.
'--set hasRequirements=true' after producing the requirements outside the
workflow. Values parse as bool or number where possible, string otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if len(contextFlags) > 0 {
				values, err := parseContextValues(contextFlags)
				if err != nil {
					return err
				}
				if err := deps.scheduler.SetContext(cmd.Context(), deps.projectDir, values); err != nil {
					return err
				}
			}

			autoContinue := auto || deps.cfg.Workflow.AutoContinue
			outcome, err := deps.scheduler.Continue(cmd.Context(), deps.projectDir, autoContinue)
			if err != nil {
				printStepFailure(cmd.Context(), deps, out, err)
				return err
			}
			return reportOutcome(cmd.Context(), deps, out, outcome, autoContinue)
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "execute auto-continue steps without confirmation")
	cmd.Flags().StringArrayVar(&contextFlags, "set", nil, "set a workflow context key before continuing (key=value, repeatable)")
	return cmd
}

// parseContextValues converts repeated key=value flags into a context map.
// "true"/"false" become booleans and integer literals become ints, so flag
// values can satisfy typed RequiredContext predicates.
func parseContextValues(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q (expected key=value)", loomerrors.ErrInvalidArgument, pair)
		}
		switch {
		case raw == "true":
			values[key] = true
		case raw == "false":
			values[key] = false
		default:
			if n, err := strconv.Atoi(raw); err == nil {
				values[key] = n
			} else {
				values[key] = raw
			}
		}
	}
	return values, nil
}

func newWorkflowStatusCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active workflow's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			progress, err := deps.scheduler.Status(cmd.Context(), deps.projectDir)
			if err != nil {
				if stderrors.Is(err, loomerrors.ErrNoActiveWorkflow) {
					out.Info("no active workflow in this project")
					return nil
				}
				return err
			}

			if flags.Output == OutputJSON {
				return out.JSON(progress)
			}

			def, err := deps.registry.Get(progress.WorkflowID)
			if err != nil {
				return err
			}

			out.Info(fmt.Sprintf("workflow %s: %d/%d steps completed",
				progress.WorkflowID, len(progress.CompletedSteps), len(def.Steps)))
			if progress.CurrentStepID != "" {
				out.Info("current step: " + progress.CurrentStepID)
			}
			if remaining := workflow.ETARemaining(def, progress); remaining > 0 {
				out.Info("estimated remaining: " + formatEstimate(remaining))
			}
			out.Info("last saved " + tui.RelativeTime(progress.LastSaved))

			rows := make([][]string, 0, len(def.Steps))
			for _, step := range def.Steps {
				state := "pending"
				switch {
				case progress.HasCompleted(step.ID):
					state = "completed"
				case step.ID == progress.CurrentStepID:
					state = "current"
				}
				rows = append(rows, []string{step.ID, step.Name, state})
			}
			out.Table([]string{"STEP", "NAME", "STATE"}, rows)
			return nil
		},
	}
}

func newWorkflowStopCmd(flags *GlobalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Abandon the active workflow",
		Long: `Abandon the active workflow, removing its persisted progress.

Completed steps are not undone; only the progress tracking is cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			if !force {
				confirmed, err := confirm("Abandon the active workflow?",
					"Progress tracking will be removed. Completed steps are not undone.")
				if err != nil {
					return err
				}
				if !confirmed {
					out.Info("stop canceled")
					return nil
				}
			}

			if err := deps.scheduler.Stop(cmd.Context(), deps.projectDir); err != nil {
				return err
			}
			out.Success("workflow stopped")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func newWorkflowRegisterCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "register <file>",
		Short: "Validate and register a workflow definition file",
		Long: `Validate and register a workflow definition file (YAML or JSON).

Registration is per invocation: add the file under workflow.definitions in
the configuration to make it available to every command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)
			deps, err := buildDeps(cmd.Context(), out)
			if err != nil {
				return err
			}

			def, err := workflow.LoadDefinition(args[0])
			if err != nil {
				return err
			}
			if err := deps.registry.Register(def); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("workflow %s is valid (%d steps)", def.ID, len(def.Steps)))
			out.Info(fmt.Sprintf("add %q to workflow.definitions in .loom/config.yaml to keep it registered", args[0]))
			return nil
		},
	}
}

// reportOutcome prints the result of a scheduling call and, on a TTY,
// offers to run the pending step.
func reportOutcome(ctx context.Context, deps *appDeps, out tui.Output, outcome *workflow.Outcome, autoContinue bool) error {
	for _, stepID := range outcome.Executed {
		out.Success("completed step " + stepID)
	}

	if outcome.Completed {
		out.Success("workflow completed")
		return nil
	}

	pending := outcome.Pending
	if pending == nil {
		return nil
	}

	confirmed, err := confirm(
		fmt.Sprintf("Run step %q now?", pending.ID),
		"Command: "+pending.Command,
	)
	if err != nil {
		return err
	}
	if !confirmed {
		out.Info(fmt.Sprintf("next step %q is ready; run it with:", pending.ID))
		out.Info("  " + pending.Command)
		out.Info("or resume with: loom workflow continue")
		return nil
	}

	next, err := deps.scheduler.Continue(ctx, deps.projectDir, autoContinue)
	if err != nil {
		return err
	}
	return reportOutcome(ctx, deps, out, next, autoContinue)
}

// printStepFailure shows the failed step's command so the user can run it
// by hand. Progress is untouched on failure, so the step stays current.
func printStepFailure(ctx context.Context, deps *appDeps, out tui.Output, err error) {
	if !stderrors.Is(err, loomerrors.ErrStepCommandFailed) {
		return
	}

	progress, statusErr := deps.scheduler.Status(ctx, deps.projectDir)
	if statusErr != nil || progress.CurrentStepID == "" {
		return
	}
	def, defErr := deps.registry.Get(progress.WorkflowID)
	if defErr != nil {
		return
	}
	for _, step := range def.Steps {
		if step.ID == progress.CurrentStepID {
			out.Info(fmt.Sprintf("step %q failed; run it manually with:", step.ID))
			out.Info("  " + step.Command)
			out.Info("then resume with: loom workflow continue")
			return
		}
	}
}

// confirm shows a yes/no prompt when stdin is a terminal. Without a TTY
// it declines, leaving the action to an explicit flag or invocation.
func confirm(title, description string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, nil
	}

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// formatEstimate renders a duration estimate compactly ("-" when absent).
func formatEstimate(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
