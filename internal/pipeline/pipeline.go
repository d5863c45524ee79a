// Package pipeline implements the generation stages that take a project
// from a one-paragraph pitch to generated component files: requirements,
// type definitions, design tokens, component inventory, and component
// code. Each stage renders a prompt, routes it to a backend, writes the
// output under the project, and records a brain artifact plus an event.
//
// IMPORTANT: This package may import internal/router (as an interface
// consumer), internal/brain, internal/prompts, and the shared leaf
// packages. It MUST NOT import internal/cli.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// Artifact kinds the pipeline records in the brain, and where each
// artifact lands inside the project.
const (
	ArtifactRequirements = "requirements"
	ArtifactTypes        = "types"
	ArtifactTokens       = "tokens"
	ArtifactInventory    = "inventory"

	requirementsPath = "docs/requirements.md"
	typesPath        = "src/types/index.ts"
	tokensPath       = "src/styles/tokens.json"
	inventoryPath    = ".loom/inventory.json"
)

// reporting identity for brain events
const (
	agentName = "pipeline"
	roleName  = "generator"
)

// Generator is the slice of the router the pipeline consumes.
type Generator interface {
	GenerateText(ctx context.Context, req domain.TextRequest) (string, error)
	GenerateComponent(ctx context.Context, req domain.ComponentRequest) (string, error)
	RefineComponent(ctx context.Context, req domain.RefineRequest) (string, error)
}

// ContextStore is the slice of the brain store the pipeline consumes.
type ContextStore interface {
	Get(ctx context.Context) *domain.Brain
	UpdateArtifact(ctx context.Context, kind, content, path string) error
	AddUpdate(ctx context.Context, agent, role string, kind constants.UpdateKind, message string, metadata map[string]any) (*domain.BrainUpdate, error)
	SetNarrative(ctx context.Context, narrative string) error
	SetStatus(ctx context.Context, status constants.BrainStatus) error
}

// Pipeline drives the generation stages for one project directory.
type Pipeline struct {
	gen        Generator
	brain      ContextStore
	cfg        config.GenerationConfig
	projectDir string
	logger     zerolog.Logger
}

// Option is a functional option for configuring Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline rooted at the given project directory.
func New(projectDir string, gen Generator, brain ContextStore, cfg config.GenerationConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:        gen,
		brain:      brain,
		cfg:        cfg,
		projectDir: projectDir,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// artifactContent returns a brain artifact's content, or a prerequisite
// error naming what's missing.
func (p *Pipeline) artifactContent(ctx context.Context, kind string) (string, error) {
	b := p.brain.Get(ctx)
	artifact, ok := b.Artifacts[kind]
	if !ok || strings.TrimSpace(artifact.Content) == "" {
		return "", fmt.Errorf("%w: %s (run 'loom generate %s' first)", loomerrors.ErrStagePrerequisite, kind, kind)
	}
	return artifact.Content, nil
}

// generationContext assembles the rich context for component operations
// from whatever artifacts exist. Missing artifacts leave their section
// empty rather than failing; classification handles thin context.
func (p *Pipeline) generationContext(ctx context.Context) domain.GenerationContext {
	b := p.brain.Get(ctx)
	return domain.GenerationContext{
		Requirements: b.Artifacts[ArtifactRequirements].Content,
		Types:        b.Artifacts[ArtifactTypes].Content,
		Brand:        b.Artifacts[ArtifactTokens].Content,
		WorkingDir:   p.projectDir,
	}
}

// writeProjectFile writes content under the project root, creating
// parent directories as needed.
func (p *Pipeline) writeProjectFile(relPath, content string) error {
	full := filepath.Join(p.projectDir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return loomerrors.Wrapf(err, "failed to create directory for %s", relPath)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		return loomerrors.Wrapf(err, "failed to write %s", relPath)
	}
	return nil
}

// record stores the stage output as a brain artifact and logs the
// completion event. Reporting failures are logged, never fatal: the
// file on disk is the source of truth.
func (p *Pipeline) record(ctx context.Context, kind, content, relPath, message string) {
	if err := p.brain.UpdateArtifact(ctx, kind, content, relPath); err != nil {
		p.logger.Warn().Err(err).Str("artifact", kind).Msg("failed to record artifact")
	}
	if _, err := p.brain.AddUpdate(ctx, agentName, roleName, constants.UpdateKindCompletion, message, nil); err != nil {
		p.logger.Warn().Err(err).Msg("failed to record update")
	}
	if err := p.brain.SetNarrative(ctx, message); err != nil {
		p.logger.Warn().Err(err).Msg("failed to set narrative")
	}
}

// setStatus updates the brain status, logging failures.
func (p *Pipeline) setStatus(ctx context.Context, status constants.BrainStatus) {
	if err := p.brain.SetStatus(ctx, status); err != nil {
		p.logger.Warn().Err(err).Str("status", status.String()).Msg("failed to set status")
	}
}

// projectName derives a display name from the project directory.
func (p *Pipeline) projectName() string {
	return filepath.Base(p.projectDir)
}

// componentFileName maps a component name to its source file name for
// the configured framework.
func (p *Pipeline) componentFileName(name string) string {
	switch p.cfg.Framework {
	case "vue":
		return name + ".vue"
	case "svelte":
		return name + ".svelte"
	default:
		return name + ".tsx"
	}
}

//nolint:gochecknoglobals // cases.Caser is read-only after construction
var titleCaser = cases.Title(language.English)

// pascalCase normalizes an arbitrary component name ("pricing card",
// "pricing-card") into PascalCase ("PricingCard").
func pascalCase(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	})
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(titleCaser.String(strings.ToLower(f)))
	}
	return b.String()
}

// stripFences removes a surrounding markdown code fence if the backend
// wrapped its output in one despite instructions.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:] // drop opening fence with optional language tag
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
