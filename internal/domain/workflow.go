// Package domain provides shared domain types for the loom pipeline core.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use camelCase to match the persisted state documents.
package domain

import (
	"time"

	"github.com/loomworks/loom/internal/constants"
)

// WorkflowDefinition is a named, ordered collection of steps representing one
// end-to-end pipeline (e.g., full project setup). Definitions are immutable
// once registered; the registry hands out deep copies.
//
// Example JSON representation:
//
//	{
//	    "id": "project-setup",
//	    "name": "Project Setup",
//	    "description": "Initialize a new project",
//	    "category": "setup",
//	    "steps": [...],
//	    "estimatedDuration": 300000000000
//	}
type WorkflowDefinition struct {
	// ID is the unique identifier for the workflow (e.g., "project-setup").
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Description explains what this workflow does.
	Description string `json:"description"`

	// Category groups workflows for listing (setup, development, deployment, maintenance).
	Category constants.WorkflowCategory `json:"category"`

	// Steps is the ordered list of step definitions. The order must respect
	// dependencies: a step's dependencies appear earlier in the list.
	Steps []WorkflowStep `json:"steps"`

	// EstimatedDuration is the total expected runtime, normally the sum of
	// the per-step estimates.
	EstimatedDuration time.Duration `json:"estimatedDuration"`
}

// WorkflowStep is one named, shell-executable unit of a workflow with
// declared dependencies.
//
// Example JSON representation:
//
//	{
//	    "id": "install-deps",
//	    "name": "Install dependencies",
//	    "description": "Install project dependencies",
//	    "command": "npm install",
//	    "dependencies": ["scaffold"],
//	    "estimatedDuration": 60000000000,
//	    "autoContinue": true
//	}
type WorkflowStep struct {
	// ID identifies this step within its workflow.
	ID string `json:"id"`

	// Name is the human-readable step name.
	Name string `json:"name"`

	// Description explains what this step does.
	Description string `json:"description,omitempty"`

	// Command is the opaque shell command this step executes. The scheduler
	// only observes its exit status and captured output.
	Command string `json:"command"`

	// Dependencies lists step IDs that must be completed before this step
	// becomes runnable.
	Dependencies []string `json:"dependencies,omitempty"`

	// EstimatedDuration is the expected runtime for this step.
	EstimatedDuration time.Duration `json:"estimatedDuration"`

	// AutoContinue permits the scheduler to execute this step without
	// waiting for human confirmation.
	AutoContinue bool `json:"autoContinue"`

	// RequiredContext lists project-context keys and the values they must
	// hold before this step is eligible. Empty means no context requirement.
	RequiredContext map[string]any `json:"requiredContext,omitempty"`

	// ContextOutputs lists context keys this step establishes. The scheduler
	// merges them into the progress context when the step completes, making
	// later steps' RequiredContext predicates satisfiable.
	ContextOutputs map[string]any `json:"contextOutputs,omitempty"`

	// Optional marks the step non-blocking: its RequiredContext is not
	// enforced during step selection.
	Optional bool `json:"optional,omitempty"`
}

// Clone creates a deep copy of the workflow definition.
// Value types are copied via struct assignment, while slices and maps
// are explicitly deep copied to prevent shared references.
func (w *WorkflowDefinition) Clone() *WorkflowDefinition {
	// Shallow copy handles all value types
	clone := *w

	// Deep copy Steps slice with nested slices and maps
	if w.Steps != nil {
		clone.Steps = make([]WorkflowStep, len(w.Steps))
		for i, s := range w.Steps {
			clone.Steps[i] = s.Clone()
		}
	}

	return &clone
}

// Clone creates a deep copy of the workflow step.
func (s WorkflowStep) Clone() WorkflowStep {
	clone := s
	if s.Dependencies != nil {
		clone.Dependencies = make([]string, len(s.Dependencies))
		copy(clone.Dependencies, s.Dependencies)
	}
	if s.RequiredContext != nil {
		clone.RequiredContext = make(map[string]any, len(s.RequiredContext))
		for k, v := range s.RequiredContext {
			clone.RequiredContext[k] = v
		}
	}
	if s.ContextOutputs != nil {
		clone.ContextOutputs = make(map[string]any, len(s.ContextOutputs))
		for k, v := range s.ContextOutputs {
			clone.ContextOutputs[k] = v
		}
	}
	return clone
}

// FindStep returns the step with the given ID, or false if no such step exists.
func (w *WorkflowDefinition) FindStep(stepID string) (WorkflowStep, bool) {
	for _, s := range w.Steps {
		if s.ID == stepID {
			return s, true
		}
	}
	return WorkflowStep{}, false
}

// TotalEstimate sums the per-step duration estimates. This is the value used
// to compute a progress ETA at start time.
func (w *WorkflowDefinition) TotalEstimate() time.Duration {
	var total time.Duration
	for _, s := range w.Steps {
		total += s.EstimatedDuration
	}
	return total
}
