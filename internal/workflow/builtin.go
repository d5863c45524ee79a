package workflow

import (
	"time"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
)

// RegisterBuiltins registers the built-in workflow definitions. User
// definitions loaded afterwards may overwrite them by ID.
func RegisterBuiltins(registry *Registry) error {
	for _, def := range builtinDefinitions() {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// builtinDefinitions returns fresh copies of the built-in workflows.
// Step commands are opaque shell strings; the generation steps invoke
// loom itself so the pipeline stages run under the scheduler.
func builtinDefinitions() []*domain.WorkflowDefinition {
	setup := &domain.WorkflowDefinition{
		ID:          "project-setup",
		Name:        "Project Setup",
		Description: "Scaffold a new project, install dependencies, and seed the shared context",
		Category:    constants.CategorySetup,
		Steps: []domain.WorkflowStep{
			{
				ID:                "scaffold",
				Name:              "Scaffold project",
				Description:       "Create the base project structure",
				Command:           "npx --yes create-next-app@latest . --ts --tailwind --eslint --app --no-git --yes",
				EstimatedDuration: 2 * time.Minute,
				AutoContinue:      true,
			},
			{
				ID:                "install",
				Name:              "Install dependencies",
				Description:       "Install project dependencies",
				Command:           "npm install",
				Dependencies:      []string{"scaffold"},
				EstimatedDuration: 90 * time.Second,
				AutoContinue:      true,
			},
			{
				ID:                "init-state",
				Name:              "Initialize loom state",
				Description:       "Create the project state directory and seed the shared context",
				Command:           "loom init --force",
				Dependencies:      []string{"scaffold", "install"},
				EstimatedDuration: 5 * time.Second,
				AutoContinue:      true,
			},
		},
	}

	pipeline := &domain.WorkflowDefinition{
		ID:          "full-pipeline",
		Name:        "Full Generation Pipeline",
		Description: "Drive the complete requirements-to-components generation pipeline",
		Category:    constants.CategoryDevelopment,
		Steps: []domain.WorkflowStep{
			{
				ID:                "requirements",
				Name:              "Generate requirements",
				Description:       "Produce the product requirements document",
				Command:           "loom generate requirements",
				EstimatedDuration: 2 * time.Minute,
				AutoContinue:      true,
				ContextOutputs:    map[string]any{"hasRequirements": true},
			},
			{
				ID:                "types",
				Name:              "Generate types",
				Description:       "Derive the type definitions from the requirements",
				Command:           "loom generate types",
				Dependencies:      []string{"requirements"},
				EstimatedDuration: 90 * time.Second,
				AutoContinue:      true,
				RequiredContext:   map[string]any{"hasRequirements": true},
			},
			{
				ID:                "tokens",
				Name:              "Generate design tokens",
				Description:       "Extract the brand design tokens",
				Command:           "loom generate tokens",
				Dependencies:      []string{"requirements"},
				EstimatedDuration: 90 * time.Second,
				AutoContinue:      true,
				RequiredContext:   map[string]any{"hasRequirements": true},
			},
			{
				ID:                "inventory",
				Name:              "Generate component inventory",
				Description:       "List the components the project needs",
				Command:           "loom generate inventory",
				Dependencies:      []string{"types", "tokens"},
				EstimatedDuration: time.Minute,
				AutoContinue:      true,
			},
			{
				ID:                "components",
				Name:              "Generate components",
				Description:       "Generate one file per inventory entry",
				Command:           "loom generate components",
				Dependencies:      []string{"inventory"},
				EstimatedDuration: 10 * time.Minute,
				AutoContinue:      true,
			},
			{
				ID:                "verify",
				Name:              "Verify build",
				Description:       "Type-check and build the generated project",
				Command:           "npm run build",
				Dependencies:      []string{"components"},
				EstimatedDuration: 2 * time.Minute,
				AutoContinue:      false,
			},
		},
	}

	deploy := &domain.WorkflowDefinition{
		ID:          "deploy-preview",
		Name:        "Deploy Preview",
		Description: "Build the project and ship a preview deployment",
		Category:    constants.CategoryMaintenance,
		Steps: []domain.WorkflowStep{
			{
				ID:                "build",
				Name:              "Build",
				Description:       "Produce a production build",
				Command:           "npm run build",
				EstimatedDuration: 2 * time.Minute,
				AutoContinue:      true,
			},
			{
				ID:                "deploy",
				Name:              "Deploy",
				Description:       "Deploy the build to the preview environment",
				Command:           "npx --yes vercel deploy --prebuilt",
				Dependencies:      []string{"build"},
				EstimatedDuration: 3 * time.Minute,
				AutoContinue:      false,
			},
		},
	}

	defs := []*domain.WorkflowDefinition{setup, pipeline, deploy}
	for _, def := range defs {
		def.EstimatedDuration = def.TotalEstimate()
	}
	return defs
}
