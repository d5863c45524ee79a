package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/loomworks/loom/internal/backend"
	"github.com/loomworks/loom/internal/brain"
	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/guard"
	"github.com/loomworks/loom/internal/pipeline"
	"github.com/loomworks/loom/internal/retry"
	"github.com/loomworks/loom/internal/router"
	"github.com/loomworks/loom/internal/tui"
	"github.com/loomworks/loom/internal/workflow"
)

// appDeps holds the wired services for one command invocation. Everything
// is constructed explicitly and passed down; no package carries a
// process-wide instance.
type appDeps struct {
	cfg        *config.Config
	projectDir string
	logger     zerolog.Logger

	brain     *brain.Store
	router    *router.Router
	guard     *guard.Guard
	registry  *workflow.Registry
	scheduler *workflow.Scheduler
	pipeline  *pipeline.Pipeline
}

// buildDeps wires the full service graph for the current project directory.
func buildDeps(ctx context.Context, out tui.Output) (*appDeps, error) {
	logger := Logger()

	projectDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	cfg, err := loadConfig(ctx, logger)
	if err != nil {
		return nil, err
	}

	brainStore := brain.NewStore(projectDir,
		brain.WithLogger(logger),
		brain.WithEcho(echoUpdate(out)),
	)

	rt := buildRouter(cfg, logger)

	g := guard.New(cfg.Guard, rt,
		guard.WithLogger(logger),
		guard.WithEcho(func(msg string) { out.Info(msg) }),
	)

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	store := workflow.NewFileProgressStore(
		workflow.WithStoreLockTimeout(cfg.Workflow.LockTimeout),
	)
	scheduler := workflow.NewScheduler(registry, store,
		workflow.WithRunner(guard.NewStepRunner(g)),
		workflow.WithReporter(brainStore),
		workflow.WithLogger(logger),
	)

	pipe := pipeline.New(projectDir, rt, brainStore, cfg.Generation,
		pipeline.WithLogger(logger),
	)

	return &appDeps{
		cfg:        cfg,
		projectDir: projectDir,
		logger:     logger,
		brain:      brainStore,
		router:     rt,
		guard:      g,
		registry:   registry,
		scheduler:  scheduler,
		pipeline:   pipe,
	}, nil
}

// loadConfig loads layered configuration, falling back to defaults when
// loading fails so read-only commands still work.
func loadConfig(ctx context.Context, logger zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load config, using default settings")
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

// buildRouter constructs the backend clients and the router over them.
// The claude client is the only tool-capable backend; the configured
// default backend serves plain generation.
func buildRouter(cfg *config.Config, logger zerolog.Logger) *router.Router {
	claude := backend.NewClaudeClient(&cfg.Backend, nil, backend.WithClaudeLogger(logger))

	var defaultClient backend.Client = claude
	if cfg.Backend.Default == "gemini" {
		defaultClient = backend.NewGeminiClient(&cfg.Backend, nil, backend.WithGeminiLogger(logger))
	}

	factory := router.NewFactory(defaultClient, claude)
	policy := retry.FromConfig(cfg.Retry)

	return router.New(factory, policy, router.WithLogger(logger))
}

// buildRegistry creates the workflow registry with built-in definitions
// plus any user-registered definition files from configuration.
func buildRegistry(cfg *config.Config) (*workflow.Registry, error) {
	registry := workflow.NewRegistry()
	if err := workflow.RegisterBuiltins(registry); err != nil {
		return nil, err
	}
	if err := workflow.RegisterFromConfig(registry, cfg.Workflow.Definitions); err != nil {
		return nil, err
	}
	return registry, nil
}

// echoUpdate renders appended brain events to the console as they happen.
func echoUpdate(out tui.Output) brain.EchoFunc {
	return func(update domain.BrainUpdate) {
		out.Info(tui.FormatUpdate(update))
	}
}
