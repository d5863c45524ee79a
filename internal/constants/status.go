package constants

// BrainStatus represents the working state recorded in the shared context
// document. Status values use lowercase for JSON serialization compatibility.
type BrainStatus string

// Brain status constants define the valid states the shared context can report.
const (
	// BrainStatusIdle indicates no pipeline activity is in progress.
	BrainStatusIdle BrainStatus = "idle"

	// BrainStatusThinking indicates a generation call is in flight.
	BrainStatusThinking BrainStatus = "thinking"

	// BrainStatusImplementing indicates generated output is being written to
	// the project.
	BrainStatusImplementing BrainStatus = "implementing"

	// BrainStatusPaused indicates the pipeline stopped awaiting human input.
	BrainStatusPaused BrainStatus = "paused"
)

// String returns the string representation of the BrainStatus.
// This implements fmt.Stringer for convenient logging and debugging.
func (s BrainStatus) String() string {
	return string(s)
}

// ValidBrainStatus reports whether s is one of the defined brain states.
func ValidBrainStatus(s BrainStatus) bool {
	switch s {
	case BrainStatusIdle, BrainStatusThinking, BrainStatusImplementing, BrainStatusPaused:
		return true
	default:
		return false
	}
}

// UpdateKind classifies one entry in the shared context event log.
type UpdateKind string

// Update kind constants define the valid event log entry types.
const (
	// UpdateKindThought records reasoning or planning narration.
	UpdateKindThought UpdateKind = "thought"

	// UpdateKindAction records a concrete operation that was performed.
	UpdateKindAction UpdateKind = "action"

	// UpdateKindError records a failure observed during the pipeline.
	UpdateKindError UpdateKind = "error"

	// UpdateKindCompletion records a finished unit of work.
	UpdateKindCompletion UpdateKind = "completion"
)

// String returns the string representation of the UpdateKind.
func (k UpdateKind) String() string {
	return string(k)
}

// WorkflowCategory groups workflow definitions for listing and filtering.
type WorkflowCategory string

// Workflow category constants.
const (
	// CategorySetup covers project bootstrap workflows.
	CategorySetup WorkflowCategory = "setup"

	// CategoryDevelopment covers the generation pipeline workflows.
	CategoryDevelopment WorkflowCategory = "development"

	// CategoryDeployment covers build-and-ship workflows.
	CategoryDeployment WorkflowCategory = "deployment"

	// CategoryMaintenance covers cleanup and upkeep workflows.
	CategoryMaintenance WorkflowCategory = "maintenance"
)

// String returns the string representation of the WorkflowCategory.
func (c WorkflowCategory) String() string {
	return string(c)
}
