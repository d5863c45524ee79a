package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/prompts"
)

// Requirements generates the product requirements document from the
// user's pitch and stores it at docs/requirements.md.
func (p *Pipeline) Requirements(ctx context.Context, description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: project description", loomerrors.ErrEmptyValue)
	}

	prompt, err := prompts.Render(prompts.GenerateRequirements, prompts.RequirementsData{
		ProjectName: p.projectName(),
		Description: description,
		Framework:   p.cfg.Framework,
	})
	if err != nil {
		return err
	}

	p.setStatus(ctx, constants.BrainStatusThinking)
	out, err := p.gen.GenerateText(ctx, domain.TextRequest{Prompt: prompt})
	if err != nil {
		p.setStatus(ctx, constants.BrainStatusIdle)
		return err
	}

	p.setStatus(ctx, constants.BrainStatusImplementing)
	doc := stripFences(out)
	if err := p.writeProjectFile(requirementsPath, doc); err != nil {
		return err
	}

	p.record(ctx, ArtifactRequirements, doc, requirementsPath, "generated requirements document")
	p.setStatus(ctx, constants.BrainStatusIdle)
	return nil
}

// Types derives the TypeScript type definitions from the requirements
// document and stores them at src/types/index.ts.
func (p *Pipeline) Types(ctx context.Context) error {
	requirements, err := p.artifactContent(ctx, ArtifactRequirements)
	if err != nil {
		return err
	}

	prompt, err := prompts.Render(prompts.GenerateTypes, prompts.TypesData{Requirements: requirements})
	if err != nil {
		return err
	}

	p.setStatus(ctx, constants.BrainStatusThinking)
	out, err := p.gen.GenerateText(ctx, domain.TextRequest{Prompt: prompt})
	if err != nil {
		p.setStatus(ctx, constants.BrainStatusIdle)
		return err
	}

	p.setStatus(ctx, constants.BrainStatusImplementing)
	source := stripFences(out)
	if err := p.writeProjectFile(typesPath, source); err != nil {
		return err
	}

	p.record(ctx, ArtifactTypes, source, typesPath, "generated type definitions")
	p.setStatus(ctx, constants.BrainStatusIdle)
	return nil
}

// Tokens extracts the design tokens from the requirements document and
// stores them at src/styles/tokens.json.
func (p *Pipeline) Tokens(ctx context.Context) error {
	requirements, err := p.artifactContent(ctx, ArtifactRequirements)
	if err != nil {
		return err
	}

	prompt, err := prompts.Render(prompts.GenerateTokens, prompts.TokensData{Requirements: requirements})
	if err != nil {
		return err
	}

	p.setStatus(ctx, constants.BrainStatusThinking)
	out, err := p.gen.GenerateText(ctx, domain.TextRequest{Prompt: prompt})
	if err != nil {
		p.setStatus(ctx, constants.BrainStatusIdle)
		return err
	}

	tokens := stripFences(out)
	if !json.Valid([]byte(tokens)) {
		return fmt.Errorf("%w: design tokens are not valid JSON", loomerrors.ErrInvalidResponseFormat)
	}

	p.setStatus(ctx, constants.BrainStatusImplementing)
	if err := p.writeProjectFile(tokensPath, tokens); err != nil {
		return err
	}

	p.record(ctx, ArtifactTokens, tokens, tokensPath, "generated design tokens")
	p.setStatus(ctx, constants.BrainStatusIdle)
	return nil
}

// ComponentSpec is one entry of the component inventory.
type ComponentSpec struct {
	// Name is the PascalCase component name.
	Name string `json:"name"`

	// Description explains the component in one line.
	Description string `json:"description"`

	// Priority orders generation: 1 is most widely used.
	Priority int `json:"priority"`
}

// Inventory generates the component inventory from the requirements and
// type definitions and stores it at .loom/inventory.json.
func (p *Pipeline) Inventory(ctx context.Context) error {
	requirements, err := p.artifactContent(ctx, ArtifactRequirements)
	if err != nil {
		return err
	}
	// Types enrich the inventory but are not a hard prerequisite.
	types, _ := p.artifactContent(ctx, ArtifactTypes)

	prompt, err := prompts.Render(prompts.GenerateInventory, prompts.InventoryData{
		Requirements: requirements,
		Types:        types,
	})
	if err != nil {
		return err
	}

	p.setStatus(ctx, constants.BrainStatusThinking)
	out, err := p.gen.GenerateText(ctx, domain.TextRequest{Prompt: prompt})
	if err != nil {
		p.setStatus(ctx, constants.BrainStatusIdle)
		return err
	}

	specs, err := parseInventory(out)
	if err != nil {
		return err
	}

	normalized, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		return loomerrors.Wrap(err, "failed to encode inventory")
	}

	p.setStatus(ctx, constants.BrainStatusImplementing)
	if err := p.writeProjectFile(inventoryPath, string(normalized)); err != nil {
		return err
	}

	p.record(ctx, ArtifactInventory, string(normalized), inventoryPath,
		fmt.Sprintf("generated component inventory (%d components)", len(specs)))
	p.setStatus(ctx, constants.BrainStatusIdle)
	return nil
}

// LoadInventory returns the parsed component inventory from the brain.
func (p *Pipeline) LoadInventory(ctx context.Context) ([]ComponentSpec, error) {
	content, err := p.artifactContent(ctx, ArtifactInventory)
	if err != nil {
		return nil, err
	}
	return parseInventory(content)
}

// parseInventory decodes and normalizes an inventory JSON array: names
// are forced to PascalCase, empty names dropped, entries sorted by
// priority then name.
func parseInventory(raw string) ([]ComponentSpec, error) {
	var specs []ComponentSpec
	if err := json.Unmarshal([]byte(stripFences(raw)), &specs); err != nil {
		return nil, fmt.Errorf("%w: inventory: %s", loomerrors.ErrInvalidResponseFormat, err.Error())
	}

	normalized := specs[:0]
	for _, spec := range specs {
		spec.Name = pascalCase(spec.Name)
		if spec.Name == "" {
			continue
		}
		if spec.Priority < 1 {
			spec.Priority = 3
		}
		normalized = append(normalized, spec)
	}
	if len(normalized) == 0 {
		return nil, loomerrors.ErrInventoryEmpty
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		if normalized[i].Priority != normalized[j].Priority {
			return normalized[i].Priority < normalized[j].Priority
		}
		return normalized[i].Name < normalized[j].Name
	})
	return normalized, nil
}
