package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/prompts"
)

// Component generates one component file into the configured output
// directory.
func (p *Pipeline) Component(ctx context.Context, name, description string) error {
	name = pascalCase(name)
	if name == "" {
		return fmt.Errorf("%w: component name", loomerrors.ErrEmptyValue)
	}

	prompt, err := prompts.Render(prompts.GenerateComponent, prompts.ComponentData{
		Name:        name,
		Description: description,
		Framework:   p.cfg.Framework,
		Styling:     p.cfg.Styling,
	})
	if err != nil {
		return err
	}

	p.setStatus(ctx, constants.BrainStatusThinking)
	out, err := p.gen.GenerateComponent(ctx, domain.ComponentRequest{
		Prompt:  prompt,
		Context: p.generationContext(ctx),
	})
	if err != nil {
		p.setStatus(ctx, constants.BrainStatusIdle)
		p.reportError(ctx, fmt.Sprintf("failed to generate %s: %v", name, err))
		return err
	}

	p.setStatus(ctx, constants.BrainStatusImplementing)
	relPath := filepath.Join(p.cfg.OutputDir, p.componentFileName(name))
	if err := p.writeProjectFile(relPath, stripFences(out)); err != nil {
		return err
	}

	if _, err := p.brain.AddUpdate(ctx, agentName, roleName, constants.UpdateKindCompletion,
		"generated component "+name, map[string]any{"path": relPath}); err != nil {
		p.logger.Warn().Err(err).Msg("failed to record update")
	}
	p.setStatus(ctx, constants.BrainStatusIdle)
	return nil
}

// Components generates every inventory entry, at most
// generation.concurrency files in flight at once. The first failure
// cancels the remaining work.
func (p *Pipeline) Components(ctx context.Context) error {
	specs, err := p.LoadInventory(ctx)
	if err != nil {
		return err
	}

	limit := p.cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	p.logger.Info().
		Int("components", len(specs)).
		Int("concurrency", limit).
		Msg("generating component batch")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, spec := range specs {
		g.Go(func() error {
			return p.Component(gctx, spec.Name, spec.Description)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := p.brain.SetNarrative(ctx, fmt.Sprintf("generated %d components", len(specs))); err != nil {
		p.logger.Warn().Err(err).Msg("failed to set narrative")
	}
	return nil
}

// Refine rewrites an existing component file per the instruction and
// writes the result back in place.
func (p *Pipeline) Refine(ctx context.Context, relPath, instruction string) error {
	if strings.TrimSpace(instruction) == "" {
		return fmt.Errorf("%w: refine instruction", loomerrors.ErrEmptyValue)
	}
	if err := validateProjectPath(relPath); err != nil {
		return err
	}

	full := filepath.Join(p.projectDir, relPath)
	current, err := os.ReadFile(full) //#nosec G304 -- path is validated against traversal above
	if err != nil {
		return loomerrors.Wrapf(err, "failed to read %s", relPath)
	}

	name := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	prompt, err := prompts.Render(prompts.GenerateRefine, prompts.RefineData{
		Name:        name,
		Instruction: instruction,
	})
	if err != nil {
		return err
	}

	p.setStatus(ctx, constants.BrainStatusThinking)
	out, err := p.gen.RefineComponent(ctx, domain.RefineRequest{
		Code:    string(current),
		Prompt:  prompt,
		Context: p.generationContext(ctx),
	})
	if err != nil {
		p.setStatus(ctx, constants.BrainStatusIdle)
		p.reportError(ctx, fmt.Sprintf("failed to refine %s: %v", name, err))
		return err
	}

	p.setStatus(ctx, constants.BrainStatusImplementing)
	if err := p.writeProjectFile(relPath, stripFences(out)); err != nil {
		return err
	}

	if _, err := p.brain.AddUpdate(ctx, agentName, roleName, constants.UpdateKindCompletion,
		"refined component "+name, map[string]any{"path": relPath}); err != nil {
		p.logger.Warn().Err(err).Msg("failed to record update")
	}
	p.setStatus(ctx, constants.BrainStatusIdle)
	return nil
}

// reportError records a failure event in the brain, best effort.
func (p *Pipeline) reportError(ctx context.Context, message string) {
	if _, err := p.brain.AddUpdate(ctx, agentName, roleName, constants.UpdateKindError, message, nil); err != nil {
		p.logger.Warn().Err(err).Msg("failed to record error update")
	}
}

// validateProjectPath rejects absolute paths and traversal outside the
// project root.
func validateProjectPath(relPath string) error {
	if relPath == "" {
		return fmt.Errorf("%w: file path", loomerrors.ErrEmptyValue)
	}
	if filepath.IsAbs(relPath) {
		return fmt.Errorf("%w: %s", loomerrors.ErrPathTraversal, relPath)
	}
	clean := filepath.Clean(relPath)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", loomerrors.ErrPathTraversal, relPath)
	}
	return nil
}
