package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRequirements(t *testing.T) {
	out, err := Render(GenerateRequirements, RequirementsData{
		ProjectName: "Brewlog",
		Description: "A coffee tasting journal for home baristas.",
		Framework:   "react",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Brewlog")
	assert.Contains(t, out, "coffee tasting journal")
	assert.Contains(t, out, "react")
	assert.Contains(t, out, "Out of Scope")
}

func TestRenderTypes(t *testing.T) {
	out, err := Render(GenerateTypes, TypesData{Requirements: "users have tasting notes"})
	require.NoError(t, err)
	assert.Contains(t, out, "users have tasting notes")
	assert.Contains(t, out, "TypeScript")
}

func TestRenderTokens(t *testing.T) {
	out, err := Render(GenerateTokens, TokensData{Requirements: "a calm, earthy product"})
	require.NoError(t, err)
	assert.Contains(t, out, "a calm, earthy product")
	assert.Contains(t, out, `"colors"`)
	assert.Contains(t, out, `"typography"`)
}

func TestRenderInventory(t *testing.T) {
	t.Run("with types", func(t *testing.T) {
		out, err := Render(GenerateInventory, InventoryData{
			Requirements: "the PRD",
			Types:        "interface Note {}",
		})
		require.NoError(t, err)
		assert.Contains(t, out, "the PRD")
		assert.Contains(t, out, "interface Note {}")
		assert.Contains(t, out, "PascalCaseName")
	})

	t.Run("without types omits the section", func(t *testing.T) {
		out, err := Render(GenerateInventory, InventoryData{Requirements: "the PRD"})
		require.NoError(t, err)
		assert.NotContains(t, out, "Type definitions:")
	})
}

func TestRenderComponent(t *testing.T) {
	out, err := Render(GenerateComponent, ComponentData{
		Name:        "TastingCard",
		Description: "shows one tasting note",
		Framework:   "react",
		Styling:     "tailwind",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "TastingCard")
	assert.Contains(t, out, "TastingCardProps")
	assert.Contains(t, out, "react")
	assert.Contains(t, out, "tailwind")
	assert.Contains(t, out, "shows one tasting note")
}

func TestRenderRefine(t *testing.T) {
	out, err := Render(GenerateRefine, RefineData{
		Name:        "TastingCard",
		Instruction: "add a rating prop",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "TastingCard")
	assert.Contains(t, out, "add a rating prop")
}

func TestRenderDiagnose(t *testing.T) {
	out, err := Render(GuardDiagnose, DiagnoseData{
		Command:     "npm run build",
		ExitCode:    1,
		Output:      "error TS2304: Cannot find name 'React'",
		Attempt:     1,
		MaxAttempts: 3,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "npm run build")
	assert.Contains(t, out, "Exit code: 1")
	assert.Contains(t, out, "Attempt: 1 of 3")
	assert.Contains(t, out, "Cannot find name 'React'")
	assert.Contains(t, out, "SKIP")
}

func TestRenderUnknownID(t *testing.T) {
	_, err := Render(PromptID("generate/nonexistent"), nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestGetTemplate(t *testing.T) {
	src, err := GetTemplate(GuardDiagnose)
	require.NoError(t, err)
	assert.Contains(t, src, "{{.Command}}")

	_, err = GetTemplate(PromptID("missing/prompt"))
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestIDs(t *testing.T) {
	ids := IDs()
	assert.Len(t, ids, 7)
	assert.Contains(t, ids, GenerateRequirements)
	assert.Contains(t, ids, GuardDiagnose)
}

func TestMustRenderPanicsOnUnknownID(t *testing.T) {
	assert.Panics(t, func() {
		MustRender(PromptID("missing/prompt"), nil)
	})
}
