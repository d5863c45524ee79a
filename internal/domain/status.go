// Package domain provides shared domain types for the loom pipeline core.
package domain

import "github.com/loomworks/loom/internal/constants"

// Re-export BrainStatus, UpdateKind, and WorkflowCategory from the constants
// package. This allows consumers to import domain types and status types
// together, providing a unified API for working with loom domain objects.
//
// Example usage:
//
//	import "github.com/loomworks/loom/internal/domain"
//
//	brain := domain.Brain{
//	    Status: domain.BrainStatusIdle,
//	}
type (
	// BrainStatus represents the coarse state of the shared context document.
	BrainStatus = constants.BrainStatus

	// UpdateKind represents the kind of a brain log event.
	UpdateKind = constants.UpdateKind

	// WorkflowCategory groups workflow definitions for listing.
	WorkflowCategory = constants.WorkflowCategory
)

// Re-export BrainStatus constants for convenience.
// These mirror the values in internal/constants/status.go.
const (
	// BrainStatusIdle indicates no work is in flight.
	BrainStatusIdle = constants.BrainStatusIdle

	// BrainStatusThinking indicates the project is in a planning phase.
	BrainStatusThinking = constants.BrainStatusThinking

	// BrainStatusImplementing indicates generation or workflow steps are running.
	BrainStatusImplementing = constants.BrainStatusImplementing

	// BrainStatusPaused indicates work was interrupted and awaits a human.
	BrainStatusPaused = constants.BrainStatusPaused
)

// Re-export UpdateKind constants for convenience.
// These mirror the values in internal/constants/status.go.
const (
	// UpdateKindThought records reasoning or planning notes.
	UpdateKindThought = constants.UpdateKindThought

	// UpdateKindAction records an executed operation.
	UpdateKindAction = constants.UpdateKindAction

	// UpdateKindError records a failure.
	UpdateKindError = constants.UpdateKindError

	// UpdateKindCompletion records a finished unit of work.
	UpdateKindCompletion = constants.UpdateKindCompletion
)

// Re-export WorkflowCategory constants for convenience.
// These mirror the values in internal/constants/status.go.
const (
	// CategorySetup groups project initialization workflows.
	CategorySetup = constants.CategorySetup

	// CategoryDevelopment groups generation and iteration workflows.
	CategoryDevelopment = constants.CategoryDevelopment

	// CategoryDeployment groups build-and-ship workflows.
	CategoryDeployment = constants.CategoryDeployment

	// CategoryMaintenance groups upkeep workflows.
	CategoryMaintenance = constants.CategoryMaintenance
)
