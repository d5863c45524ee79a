package prompts

// PromptID identifies a specific prompt template.
type PromptID string

// Prompt identifiers for all backend prompts in loom.
const (
	// Generation pipeline prompts
	GenerateRequirements PromptID = "generate/requirements"
	GenerateTypes        PromptID = "generate/types"
	GenerateTokens       PromptID = "generate/tokens"
	GenerateInventory    PromptID = "generate/inventory"
	GenerateComponent    PromptID = "generate/component"
	GenerateRefine       PromptID = "generate/refine"

	// Self-healing executor prompts
	GuardDiagnose PromptID = "guard/diagnose"
)

// RequirementsData contains input data for requirements generation.
type RequirementsData struct {
	// ProjectName is the human-readable project name.
	ProjectName string
	// Description is the user's one-paragraph project pitch.
	Description string
	// Framework is the target UI framework (react, vue, svelte).
	Framework string
}

// TypesData contains input data for type-definition generation.
type TypesData struct {
	// Requirements is the full requirements document.
	Requirements string
}

// TokensData contains input data for design-token generation.
type TokensData struct {
	// Requirements is the full requirements document.
	Requirements string
}

// InventoryData contains input data for component-inventory generation.
type InventoryData struct {
	// Requirements is the full requirements document.
	Requirements string
	// Types is the type-definition source.
	Types string
}

// ComponentData contains input data for single-component generation.
type ComponentData struct {
	// Name is the PascalCase component name.
	Name string
	// Description explains what the component does.
	Description string
	// Framework is the target UI framework.
	Framework string
	// Styling is the styling approach (tailwind, css-modules).
	Styling string
}

// RefineData contains input data for component refinement.
type RefineData struct {
	// Name is the component being refined.
	Name string
	// Instruction describes the requested change.
	Instruction string
}

// DiagnoseData contains input data for guard failure diagnosis.
type DiagnoseData struct {
	// Command is the failing shell command.
	Command string
	// ExitCode is the command's exit status.
	ExitCode int
	// Output is the captured combined stdout/stderr, possibly truncated.
	Output string
	// Attempt is the 1-based attempt number that just failed.
	Attempt int
	// MaxAttempts is the total attempt budget.
	MaxAttempts int
}
