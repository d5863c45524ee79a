// Package domain provides shared domain types for the loom pipeline core.
package domain

import "time"

// OperationKind identifies one of the five generation operations the router
// accepts. It doubles as the metrics category key.
type OperationKind string

// Operation kind constants define the closed set of routed operations.
const (
	// OperationText is plain text generation with no structured context.
	OperationText OperationKind = "text_generation"

	// OperationComponent is component code generation from project context.
	OperationComponent OperationKind = "component_generation"

	// OperationRefine is refinement of existing component code.
	OperationRefine OperationKind = "component_refinement"

	// OperationWorkflow is multi-step workflow execution by the backend.
	OperationWorkflow OperationKind = "workflow_execution"

	// OperationTools is generation with an explicit tool list.
	OperationTools OperationKind = "tool_generation"
)

// String returns the string representation of the OperationKind.
// This implements fmt.Stringer for convenient logging and debugging.
func (k OperationKind) String() string {
	return string(k)
}

// Complexity grades a request for client selection.
type Complexity string

// Complexity constants define the valid classification grades.
const (
	// ComplexitySimple is a short, contextless request.
	ComplexitySimple Complexity = "simple"

	// ComplexityModerate is a mid-sized request or one with partial context.
	ComplexityModerate Complexity = "moderate"

	// ComplexityComplex is a large request with rich context, or any
	// workflow/tool operation.
	ComplexityComplex Complexity = "complex"
)

// String returns the string representation of the Complexity.
func (c Complexity) String() string {
	return string(c)
}

// Request is the closed set of generation request variants accepted by the
// router. Each variant carries only the fields relevant to its kind, so
// classification never probes for optional fields.
type Request interface {
	// Kind returns the operation kind used for classification and metrics.
	Kind() OperationKind
}

// TextRequest asks for plain text generation.
type TextRequest struct {
	// Prompt is the instruction text.
	Prompt string

	// Options carries model and timeout overrides.
	Options GenerateOptions
}

// Kind implements Request.
func (TextRequest) Kind() OperationKind { return OperationText }

// ComponentRequest asks for component code generation.
type ComponentRequest struct {
	// Prompt is the instruction text.
	Prompt string

	// Context carries the project artifacts the generation draws on.
	Context GenerationContext

	// Options carries model and timeout overrides.
	Options GenerateOptions
}

// Kind implements Request.
func (ComponentRequest) Kind() OperationKind { return OperationComponent }

// RefineRequest asks for refinement of existing component code.
type RefineRequest struct {
	// Code is the current component source to refine.
	Code string

	// Prompt describes the requested change.
	Prompt string

	// Context carries the project artifacts the refinement draws on.
	Context GenerationContext

	// Options carries model and timeout overrides.
	Options GenerateOptions
}

// Kind implements Request.
func (RefineRequest) Kind() OperationKind { return OperationRefine }

// WorkflowRequest asks the backend to drive a multi-step workflow itself.
type WorkflowRequest struct {
	// Prompt describes the workflow to run.
	Prompt string

	// Context carries the project artifacts available to the workflow.
	Context GenerationContext

	// Options carries model and timeout overrides.
	Options GenerateOptions
}

// Kind implements Request.
func (WorkflowRequest) Kind() OperationKind { return OperationWorkflow }

// ToolRequest asks for generation with an explicit tool list.
type ToolRequest struct {
	// Prompt is the instruction text.
	Prompt string

	// Tools lists the tools the backend may invoke.
	Tools []ToolSpec

	// Context carries the project artifacts available to the tools.
	Context GenerationContext

	// Options carries model and timeout overrides.
	Options GenerateOptions
}

// Kind implements Request.
func (ToolRequest) Kind() OperationKind { return OperationTools }

// GenerationContext carries the project artifacts attached to a generation
// request. Empty fields mean the section is absent.
type GenerationContext struct {
	// Requirements is the requirements document text.
	Requirements string

	// Types is the type-definition document text.
	Types string

	// Brand is the design-token document text.
	Brand string

	// WorkingDir points the backend at the project directory for
	// file-access operations. Empty means no file access is implied.
	WorkingDir string
}

// IsRich reports whether all three artifact sections are present. Rich
// context pushes component operations toward the complex grade.
func (c GenerationContext) IsRich() bool {
	return c.Requirements != "" && c.Types != "" && c.Brand != ""
}

// Chars returns the total character count across the artifact sections.
func (c GenerationContext) Chars() int {
	return len(c.Requirements) + len(c.Types) + len(c.Brand)
}

// GenerateOptions carries per-call overrides for a backend invocation.
type GenerateOptions struct {
	// Model specifies which backend model to use. Empty selects the
	// client's default.
	Model string

	// Timeout is the maximum duration for the backend call. Zero selects
	// the configured default.
	Timeout time.Duration

	// SystemPrompt overrides the backend's default system prompt.
	SystemPrompt string
}

// ToolSpec names one tool a ToolRequest grants the backend.
type ToolSpec struct {
	// Name is the tool identifier (e.g., "Read", "Write", "Bash").
	Name string `json:"name"`

	// Description explains the tool to the backend.
	Description string `json:"description,omitempty"`
}

// GenerateResult captures the outcome of a workflow or tool-augmented call.
//
// Example JSON representation:
//
//	{
//	    "output": "Generated 4 components",
//	    "sessionId": "sess-abc123",
//	    "durationMs": 45000,
//	    "numTurns": 5,
//	    "filesChanged": ["components/Button.tsx"]
//	}
type GenerateResult struct {
	// Output contains the backend's response or summary.
	Output string `json:"output"`

	// SessionID identifies the backend session for debugging.
	SessionID string `json:"sessionId,omitempty"`

	// DurationMs is how long the backend call took in milliseconds.
	DurationMs int `json:"durationMs"`

	// NumTurns is how many conversation turns occurred.
	NumTurns int `json:"numTurns,omitempty"`

	// TotalCostUSD is the estimated cost of the backend session.
	TotalCostUSD float64 `json:"totalCostUsd,omitempty"`

	// FilesChanged lists paths of files that were created or modified.
	FilesChanged []string `json:"filesChanged,omitempty"`
}

// OperationMetadata is the derived classification of one generation request.
// It is ephemeral: recomputed on every call and never persisted.
type OperationMetadata struct {
	// Kind is the operation kind the metadata was derived from.
	Kind OperationKind `json:"kind"`

	// Complexity is the classification grade.
	Complexity Complexity `json:"complexity"`

	// RequiresTools is set for operations that need a tool-capable client.
	RequiresTools bool `json:"requiresTools"`

	// RequiresStreaming is set for long-running operations whose output
	// should stream.
	RequiresStreaming bool `json:"requiresStreaming"`

	// RequiresMultiStep is set for operations spanning multiple backend turns.
	RequiresMultiStep bool `json:"requiresMultiStep"`

	// RequiresFileAccess is set when the request references a working directory.
	RequiresFileAccess bool `json:"requiresFileAccess"`

	// RequiresValidation is set for operations whose output is code that
	// must validate before use.
	RequiresValidation bool `json:"requiresValidation"`

	// EstimatedTokens is ceil(chars/4) summed over prompt, code payload,
	// and context sections.
	EstimatedTokens int `json:"estimatedTokens"`
}
