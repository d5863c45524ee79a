package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Example JSON documents for documentation purposes.
// These demonstrate the expected JSON format with camelCase field names.
const (
	// exampleProgressJSON shows the on-disk workflow-state document format.
	exampleProgressJSON = `{
    "workflowId": "project-setup",
    "currentStepId": "install-deps",
    "completedSteps": ["scaffold"],
    "startedAt": "2026-03-10T09:00:00Z",
    "estimatedCompletion": "2026-03-10T09:05:00Z",
    "context": {"hasRequirements": true},
    "lastSaved": "2026-03-10T09:01:30Z"
}`

	// exampleBrainJSON shows the on-disk shared-context document format.
	exampleBrainJSON = `{
    "status": "implementing",
    "narrative": "Generating component inventory",
    "updates": [
        {
            "id": "550e8400-e29b-41d4-a716-446655440000",
            "timestamp": "2026-03-10T09:01:30Z",
            "agent": "scheduler",
            "role": "orchestrator",
            "type": "action",
            "message": "completed step install-deps"
        }
    ],
    "artifacts": {
        "requirements": {
            "path": "docs/prd.md",
            "content": "# Requirements",
            "version": 2,
            "lastUpdated": "2026-03-10T08:55:00Z"
        }
    },
    "version": "1.0.4"
}`
)

// TestWorkflowProgress_JSONSerialization verifies the on-disk field names.
func TestWorkflowProgress_JSONSerialization(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	eta := started.Add(5 * time.Minute)

	progress := WorkflowProgress{
		WorkflowID:          "project-setup",
		CurrentStepID:       "install-deps",
		CompletedSteps:      []string{"scaffold"},
		StartedAt:           started,
		EstimatedCompletion: &eta,
		Context:             map[string]any{"hasRequirements": true},
		LastSaved:           started.Add(90 * time.Second),
	}

	data, err := json.Marshal(progress)
	require.NoError(t, err)

	jsonStr := string(data)

	// Verify camelCase keys are present
	assert.Contains(t, jsonStr, `"workflowId"`)
	assert.Contains(t, jsonStr, `"currentStepId"`)
	assert.Contains(t, jsonStr, `"completedSteps"`)
	assert.Contains(t, jsonStr, `"startedAt"`)
	assert.Contains(t, jsonStr, `"estimatedCompletion"`)
	assert.Contains(t, jsonStr, `"lastSaved"`)

	// Verify snake_case keys are NOT present
	assert.NotContains(t, jsonStr, `"workflow_id"`)
	assert.NotContains(t, jsonStr, `"current_step_id"`)
	assert.NotContains(t, jsonStr, `"completed_steps"`)
	assert.NotContains(t, jsonStr, `"started_at"`)
	assert.NotContains(t, jsonStr, `"last_saved"`)

	// Round-trip test
	var decoded WorkflowProgress
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, progress.WorkflowID, decoded.WorkflowID)
	assert.Equal(t, progress.CurrentStepID, decoded.CurrentStepID)
	assert.Equal(t, progress.CompletedSteps, decoded.CompletedSteps)
	assert.True(t, progress.StartedAt.Equal(decoded.StartedAt))
	require.NotNil(t, decoded.EstimatedCompletion)
	assert.True(t, eta.Equal(*decoded.EstimatedCompletion))
	assert.Equal(t, true, decoded.Context["hasRequirements"])
}

// TestWorkflowProgress_OmitemptyFields verifies optional fields are omitted when empty.
func TestWorkflowProgress_OmitemptyFields(t *testing.T) {
	progress := WorkflowProgress{
		WorkflowID:     "project-setup",
		CompletedSteps: []string{},
		StartedAt:      time.Now(),
		Context:        map[string]any{},
		LastSaved:      time.Now(),
		// CurrentStepID, EstimatedCompletion, Completed intentionally zero
	}

	data, err := json.Marshal(progress)
	require.NoError(t, err)

	jsonStr := string(data)

	assert.NotContains(t, jsonStr, `"currentStepId"`)
	assert.NotContains(t, jsonStr, `"estimatedCompletion"`)
	assert.NotContains(t, jsonStr, `"completed"`)
}

// TestDeserializeExampleProgressJSON verifies we can parse the documented example JSON.
func TestDeserializeExampleProgressJSON(t *testing.T) {
	var progress WorkflowProgress
	err := json.Unmarshal([]byte(exampleProgressJSON), &progress)
	require.NoError(t, err)

	assert.Equal(t, "project-setup", progress.WorkflowID)
	assert.Equal(t, "install-deps", progress.CurrentStepID)
	assert.Equal(t, []string{"scaffold"}, progress.CompletedSteps)
	assert.False(t, progress.Completed)
	assert.Equal(t, true, progress.Context["hasRequirements"])
}

// TestWorkflowProgress_HasCompleted exercises completed-step membership checks.
func TestWorkflowProgress_HasCompleted(t *testing.T) {
	progress := WorkflowProgress{CompletedSteps: []string{"a", "b"}}

	assert.True(t, progress.HasCompleted("a"))
	assert.True(t, progress.HasCompleted("b"))
	assert.False(t, progress.HasCompleted("c"))
	assert.False(t, progress.HasCompleted(""))
}

// TestWorkflowProgress_DependenciesSatisfied verifies the subset check.
func TestWorkflowProgress_DependenciesSatisfied(t *testing.T) {
	progress := WorkflowProgress{CompletedSteps: []string{"a", "b"}}

	tests := []struct {
		name string
		step WorkflowStep
		want bool
	}{
		{"no dependencies", WorkflowStep{ID: "x"}, true},
		{"all satisfied", WorkflowStep{ID: "x", Dependencies: []string{"a", "b"}}, true},
		{"partially satisfied", WorkflowStep{ID: "x", Dependencies: []string{"a", "c"}}, false},
		{"none satisfied", WorkflowStep{ID: "x", Dependencies: []string{"c"}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, progress.DependenciesSatisfied(tc.step))
		})
	}
}

// TestWorkflowProgress_ContextMatches verifies predicate evaluation against
// the context snapshot.
func TestWorkflowProgress_ContextMatches(t *testing.T) {
	progress := WorkflowProgress{
		Context: map[string]any{
			"hasRequirements": true,
			"stage":           "types",
			"componentCount":  float64(4), // JSON round-trip yields float64
		},
	}

	tests := []struct {
		name     string
		required map[string]any
		want     bool
	}{
		{"nil requirement", nil, true},
		{"empty requirement", map[string]any{}, true},
		{"matching bool", map[string]any{"hasRequirements": true}, true},
		{"mismatched bool", map[string]any{"hasRequirements": false}, false},
		{"matching string", map[string]any{"stage": "types"}, true},
		{"missing key", map[string]any{"hasBrand": true}, false},
		{"int matches float64", map[string]any{"componentCount": 4}, true},
		{"multiple all match", map[string]any{"hasRequirements": true, "stage": "types"}, true},
		{"multiple one mismatch", map[string]any{"hasRequirements": true, "stage": "tokens"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, progress.ContextMatches(tc.required))
		})
	}
}

// TestWorkflowProgress_Clone verifies Clone creates a deep copy.
func TestWorkflowProgress_Clone(t *testing.T) {
	eta := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)
	original := &WorkflowProgress{
		WorkflowID:          "project-setup",
		CompletedSteps:      []string{"a"},
		EstimatedCompletion: &eta,
		Context:             map[string]any{"flag": true},
	}

	cloned := original.Clone()

	assert.Equal(t, original.WorkflowID, cloned.WorkflowID)
	assert.Equal(t, original.CompletedSteps, cloned.CompletedSteps)

	// Modify original - cloned should not be affected
	original.CompletedSteps[0] = "modified"
	original.Context["flag"] = false
	*original.EstimatedCompletion = eta.Add(time.Hour)

	assert.Equal(t, "a", cloned.CompletedSteps[0])
	assert.Equal(t, true, cloned.Context["flag"])
	assert.True(t, eta.Equal(*cloned.EstimatedCompletion))
}

// TestWorkflowDefinition_Clone verifies Clone creates a deep copy.
func TestWorkflowDefinition_Clone(t *testing.T) {
	original := &WorkflowDefinition{
		ID:          "project-setup",
		Name:        "Project Setup",
		Description: "Initialize a new project",
		Category:    CategorySetup,
		Steps: []WorkflowStep{
			{
				ID:                "scaffold",
				Name:              "Scaffold project",
				Command:           "loom init",
				EstimatedDuration: time.Minute,
				AutoContinue:      true,
			},
			{
				ID:                "install-deps",
				Name:              "Install dependencies",
				Command:           "npm install",
				Dependencies:      []string{"scaffold"},
				EstimatedDuration: 2 * time.Minute,
				RequiredContext:   map[string]any{"hasPackageJSON": true},
			},
		},
		EstimatedDuration: 3 * time.Minute,
	}

	cloned := original.Clone()

	assert.Equal(t, original.ID, cloned.ID)
	assert.Equal(t, original.Category, cloned.Category)
	require.Len(t, cloned.Steps, 2)

	// Modify original slices and maps - cloned should not be affected
	original.Steps[1].Dependencies[0] = "modified"
	original.Steps[1].RequiredContext["hasPackageJSON"] = false

	assert.Equal(t, "scaffold", cloned.Steps[1].Dependencies[0])
	assert.Equal(t, true, cloned.Steps[1].RequiredContext["hasPackageJSON"])
}

// TestWorkflowDefinition_Clone_NilSteps verifies Clone handles nil slices correctly.
func TestWorkflowDefinition_Clone_NilSteps(t *testing.T) {
	original := &WorkflowDefinition{ID: "minimal", Name: "Minimal"}

	cloned := original.Clone()

	assert.Equal(t, original.ID, cloned.ID)
	assert.Nil(t, cloned.Steps)
}

// TestWorkflowDefinition_FindStep verifies step lookup by ID.
func TestWorkflowDefinition_FindStep(t *testing.T) {
	def := &WorkflowDefinition{
		ID: "wf",
		Steps: []WorkflowStep{
			{ID: "a", Name: "Step A"},
			{ID: "b", Name: "Step B"},
		},
	}

	step, ok := def.FindStep("b")
	require.True(t, ok)
	assert.Equal(t, "Step B", step.Name)

	_, ok = def.FindStep("missing")
	assert.False(t, ok)
}

// TestWorkflowDefinition_TotalEstimate verifies per-step estimates are summed.
func TestWorkflowDefinition_TotalEstimate(t *testing.T) {
	def := &WorkflowDefinition{
		Steps: []WorkflowStep{
			{ID: "a", EstimatedDuration: time.Minute},
			{ID: "b", EstimatedDuration: 2 * time.Minute},
			{ID: "c"},
		},
	}

	assert.Equal(t, 3*time.Minute, def.TotalEstimate())
	assert.Equal(t, time.Duration(0), (&WorkflowDefinition{}).TotalEstimate())
}

// TestBrain_JSONSerialization verifies the on-disk field names.
func TestBrain_JSONSerialization(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 1, 30, 0, time.UTC)

	brain := Brain{
		Status:    BrainStatusImplementing,
		Narrative: "Generating component inventory",
		Updates: []BrainUpdate{
			{
				ID:        "550e8400-e29b-41d4-a716-446655440000",
				Timestamp: now,
				Agent:     "scheduler",
				Role:      "orchestrator",
				Type:      UpdateKindAction,
				Message:   "completed step install-deps",
			},
		},
		Artifacts: map[string]BrainArtifact{
			"requirements": {
				Path:        "docs/prd.md",
				Content:     "# Requirements",
				Version:     2,
				LastUpdated: now,
			},
		},
		Version: "1.0.4",
	}

	data, err := json.Marshal(brain)
	require.NoError(t, err)

	jsonStr := string(data)

	// Verify camelCase keys are present
	assert.Contains(t, jsonStr, `"lastUpdated"`)
	assert.Contains(t, jsonStr, `"status"`)
	assert.Contains(t, jsonStr, `"narrative"`)
	assert.Contains(t, jsonStr, `"updates"`)
	assert.Contains(t, jsonStr, `"artifacts"`)

	// Verify snake_case keys are NOT present
	assert.NotContains(t, jsonStr, `"last_updated"`)

	// Round-trip test
	var decoded Brain
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, brain.Status, decoded.Status)
	assert.Equal(t, brain.Narrative, decoded.Narrative)
	assert.Equal(t, brain.Version, decoded.Version)
	require.Len(t, decoded.Updates, 1)
	assert.Equal(t, brain.Updates[0].ID, decoded.Updates[0].ID)
	assert.Equal(t, brain.Updates[0].Type, decoded.Updates[0].Type)
	require.Contains(t, decoded.Artifacts, "requirements")
	assert.Equal(t, 2, decoded.Artifacts["requirements"].Version)
}

// TestDeserializeExampleBrainJSON verifies we can parse the documented example JSON.
func TestDeserializeExampleBrainJSON(t *testing.T) {
	var brain Brain
	err := json.Unmarshal([]byte(exampleBrainJSON), &brain)
	require.NoError(t, err)

	assert.Equal(t, BrainStatusImplementing, brain.Status)
	assert.Equal(t, "Generating component inventory", brain.Narrative)
	assert.Equal(t, "1.0.4", brain.Version)
	require.Len(t, brain.Updates, 1)
	assert.Equal(t, "scheduler", brain.Updates[0].Agent)
	assert.Equal(t, UpdateKindAction, brain.Updates[0].Type)
	require.Contains(t, brain.Artifacts, "requirements")
	assert.Equal(t, "docs/prd.md", brain.Artifacts["requirements"].Path)
}

// TestBrainUpdate_OmitemptyFields verifies optional fields are omitted when empty.
func TestBrainUpdate_OmitemptyFields(t *testing.T) {
	update := BrainUpdate{
		ID:        "u-1",
		Timestamp: time.Now(),
		Agent:     "guard",
		Role:      "guard",
		Type:      UpdateKindError,
		Message:   "command failed",
		// Metadata intentionally nil
	}

	data, err := json.Marshal(update)
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"metadata"`)
}

// TestSeedBrain verifies the seed state and that seeds are independent copies.
func TestSeedBrain(t *testing.T) {
	seed := SeedBrain()

	assert.Equal(t, BrainStatusIdle, seed.Status)
	assert.Empty(t, seed.Narrative)
	assert.NotNil(t, seed.Updates)
	assert.Empty(t, seed.Updates)
	assert.NotNil(t, seed.Artifacts)
	assert.Empty(t, seed.Artifacts)
	assert.Equal(t, "1.0.0", seed.Version)

	// Mutating one seed must not leak into a later seed
	seed.Updates = append(seed.Updates, BrainUpdate{ID: "u-1"})
	seed.Artifacts["requirements"] = BrainArtifact{Version: 1}

	fresh := SeedBrain()
	assert.Empty(t, fresh.Updates)
	assert.Empty(t, fresh.Artifacts)
}

// TestBrain_Clone verifies Clone creates a deep copy.
func TestBrain_Clone(t *testing.T) {
	original := &Brain{
		Status:    BrainStatusThinking,
		Narrative: "planning",
		Updates: []BrainUpdate{
			{ID: "u-1", Message: "first", Metadata: map[string]any{"step": "a"}},
		},
		Artifacts: map[string]BrainArtifact{
			"types": {Path: "types.ts", Version: 1},
		},
		Version: "1.0.1",
	}

	cloned := original.Clone()

	assert.Equal(t, original.Status, cloned.Status)
	require.Len(t, cloned.Updates, 1)

	// Modify original - cloned should not be affected
	original.Updates[0].Message = "modified"
	original.Updates[0].Metadata["step"] = "b"
	original.Artifacts["types"] = BrainArtifact{Path: "other.ts", Version: 9}

	assert.Equal(t, "first", cloned.Updates[0].Message)
	assert.Equal(t, "a", cloned.Updates[0].Metadata["step"])
	assert.Equal(t, "types.ts", cloned.Artifacts["types"].Path)
	assert.Equal(t, 1, cloned.Artifacts["types"].Version)
}

// TestOperationKind_String verifies OperationKind String() values.
func TestOperationKind_String(t *testing.T) {
	tests := []struct {
		kind OperationKind
		want string
	}{
		{OperationText, "text_generation"},
		{OperationComponent, "component_generation"},
		{OperationRefine, "component_refinement"},
		{OperationWorkflow, "workflow_execution"},
		{OperationTools, "tool_generation"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

// TestRequest_Kinds verifies each request variant reports its kind.
func TestRequest_Kinds(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want OperationKind
	}{
		{"text", TextRequest{Prompt: "hi"}, OperationText},
		{"component", ComponentRequest{Prompt: "button"}, OperationComponent},
		{"refine", RefineRequest{Code: "x", Prompt: "fix"}, OperationRefine},
		{"workflow", WorkflowRequest{Prompt: "setup"}, OperationWorkflow},
		{"tools", ToolRequest{Prompt: "scan", Tools: []ToolSpec{{Name: "Read"}}}, OperationTools},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.req.Kind())
		})
	}
}

// TestGenerationContext_IsRich verifies the rich-context rule.
func TestGenerationContext_IsRich(t *testing.T) {
	tests := []struct {
		name string
		ctx  GenerationContext
		want bool
	}{
		{"empty", GenerationContext{}, false},
		{"requirements only", GenerationContext{Requirements: "r"}, false},
		{"two sections", GenerationContext{Requirements: "r", Types: "t"}, false},
		{"all three", GenerationContext{Requirements: "r", Types: "t", Brand: "b"}, true},
		{"working dir does not count", GenerationContext{WorkingDir: "/p"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ctx.IsRich())
		})
	}
}

// TestGenerationContext_Chars verifies section character counting.
func TestGenerationContext_Chars(t *testing.T) {
	ctx := GenerationContext{Requirements: "12345", Types: "123", Brand: "12"}
	assert.Equal(t, 10, ctx.Chars())
	assert.Equal(t, 0, GenerationContext{WorkingDir: "/p"}.Chars())
}

// TestStatusReexports verifies that status constants are properly re-exported.
func TestStatusReexports(t *testing.T) {
	// Verify BrainStatus re-exports
	assert.Equal(t, "idle", string(BrainStatusIdle))
	assert.Equal(t, "thinking", string(BrainStatusThinking))
	assert.Equal(t, "implementing", string(BrainStatusImplementing))
	assert.Equal(t, "paused", string(BrainStatusPaused))

	// Verify UpdateKind re-exports
	assert.Equal(t, "thought", string(UpdateKindThought))
	assert.Equal(t, "action", string(UpdateKindAction))
	assert.Equal(t, "error", string(UpdateKindError))
	assert.Equal(t, "completion", string(UpdateKindCompletion))

	// Verify WorkflowCategory re-exports
	assert.Equal(t, "setup", string(CategorySetup))
	assert.Equal(t, "development", string(CategoryDevelopment))
	assert.Equal(t, "deployment", string(CategoryDeployment))
	assert.Equal(t, "maintenance", string(CategoryMaintenance))
}

// TestGenerateResult_JSONSerialization verifies GenerateResult marshals with camelCase keys.
func TestGenerateResult_JSONSerialization(t *testing.T) {
	result := GenerateResult{
		Output:       "Generated 4 components",
		SessionID:    "sess-abc123",
		DurationMs:   45000,
		NumTurns:     5,
		TotalCostUSD: 0.15,
		FilesChanged: []string{"components/Button.tsx"},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	jsonStr := string(data)

	assert.Contains(t, jsonStr, `"sessionId"`)
	assert.Contains(t, jsonStr, `"durationMs"`)
	assert.Contains(t, jsonStr, `"numTurns"`)
	assert.Contains(t, jsonStr, `"totalCostUsd"`)
	assert.Contains(t, jsonStr, `"filesChanged"`)

	// Round-trip test
	var decoded GenerateResult
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, result.Output, decoded.Output)
	assert.Equal(t, result.SessionID, decoded.SessionID)
	assert.Equal(t, result.DurationMs, decoded.DurationMs)
	assert.InDelta(t, result.TotalCostUSD, decoded.TotalCostUSD, 0.0001)
	require.Len(t, decoded.FilesChanged, 1)
}

// TestGenerateResult_OmitemptyFields verifies optional fields are omitted when empty.
func TestGenerateResult_OmitemptyFields(t *testing.T) {
	result := GenerateResult{
		Output:     "Done",
		DurationMs: 1000,
		// SessionID, NumTurns, TotalCostUSD, FilesChanged intentionally zero
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	jsonStr := string(data)

	assert.NotContains(t, jsonStr, `"sessionId"`)
	assert.NotContains(t, jsonStr, `"numTurns"`)
	assert.NotContains(t, jsonStr, `"totalCostUsd"`)
	assert.NotContains(t, jsonStr, `"filesChanged"`)
}
