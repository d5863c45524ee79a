// Package domain provides shared domain types for the loom pipeline core.
package domain

import (
	"reflect"
	"time"
)

// WorkflowProgress tracks one run of a workflow within a project directory.
// It is the unit of persistence and resumption: created by startWorkflow,
// saved after every step, and removed on stop or completion.
//
// The JSON field names are the on-disk format of the workflow-state document
// and must not change without a migration.
//
// Example JSON representation:
//
//	{
//	    "workflowId": "project-setup",
//	    "currentStepId": "install-deps",
//	    "completedSteps": ["scaffold"],
//	    "startedAt": "2026-03-10T09:00:00Z",
//	    "estimatedCompletion": "2026-03-10T09:05:00Z",
//	    "context": {"hasRequirements": true},
//	    "lastSaved": "2026-03-10T09:01:30Z"
//	}
type WorkflowProgress struct {
	// WorkflowID identifies which workflow definition this progress belongs to.
	WorkflowID string `json:"workflowId"`

	// CurrentStepID is the step currently selected for execution, empty when
	// no step is in flight.
	CurrentStepID string `json:"currentStepId,omitempty"`

	// CompletedSteps lists the IDs of steps whose commands returned success,
	// in completion order.
	CompletedSteps []string `json:"completedSteps"`

	// StartedAt is when the workflow run began.
	StartedAt time.Time `json:"startedAt"`

	// EstimatedCompletion is StartedAt plus the definition's total estimate
	// (nil if the definition carries no estimates).
	EstimatedCompletion *time.Time `json:"estimatedCompletion,omitempty"`

	// Context is the snapshot of project-state flags used for step
	// eligibility checks.
	Context map[string]any `json:"context"`

	// Completed is set when no runnable step remains.
	Completed bool `json:"completed,omitempty"`

	// LastSaved is when this progress was last written to disk.
	LastSaved time.Time `json:"lastSaved"`
}

// HasCompleted reports whether the given step ID is present in CompletedSteps.
func (p *WorkflowProgress) HasCompleted(stepID string) bool {
	for _, id := range p.CompletedSteps {
		if id == stepID {
			return true
		}
	}
	return false
}

// DependenciesSatisfied reports whether every dependency of the step is
// present in CompletedSteps.
func (p *WorkflowProgress) DependenciesSatisfied(step WorkflowStep) bool {
	for _, dep := range step.Dependencies {
		if !p.HasCompleted(dep) {
			return false
		}
	}
	return true
}

// ContextMatches reports whether every key in required holds the same value
// in the progress context snapshot. An empty requirement always matches.
//
// Numbers are compared by value regardless of concrete type: workflow files
// decode integers as int while a reloaded progress context holds float64.
func (p *WorkflowProgress) ContextMatches(required map[string]any) bool {
	for key, want := range required {
		got, ok := p.Context[key]
		if !ok || !contextValueEqual(got, want) {
			return false
		}
	}
	return true
}

func contextValueEqual(a, b any) bool {
	if na, aOK := numericValue(a); aOK {
		nb, bOK := numericValue(b)
		return bOK && na == nb
	}
	return reflect.DeepEqual(a, b)
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Clone creates a deep copy of the progress.
func (p *WorkflowProgress) Clone() *WorkflowProgress {
	clone := *p

	if p.CompletedSteps != nil {
		clone.CompletedSteps = make([]string, len(p.CompletedSteps))
		copy(clone.CompletedSteps, p.CompletedSteps)
	}
	if p.Context != nil {
		clone.Context = make(map[string]any, len(p.Context))
		for k, v := range p.Context {
			clone.Context[k] = v
		}
	}
	if p.EstimatedCompletion != nil {
		t := *p.EstimatedCompletion
		clone.EstimatedCompletion = &t
	}

	return &clone
}
