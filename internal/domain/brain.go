// Package domain provides shared domain types for the loom pipeline core.
package domain

import (
	"time"

	"github.com/loomworks/loom/internal/constants"
)

// Brain is the shared context document for one project: narrative, status,
// an append-only event log, and versioned artifacts. Every agent and
// subsystem reports through it.
//
// The JSON field names are the on-disk format of the shared-context document
// and must not change without a migration.
//
// Example JSON representation:
//
//	{
//	    "status": "implementing",
//	    "narrative": "Generating component inventory",
//	    "updates": [...],
//	    "artifacts": {"requirements": {"path": "docs/prd.md", "content": "...", "version": 2, "lastUpdated": "..."}},
//	    "version": "1.0.4"
//	}
type Brain struct {
	// Status is the coarse project state (idle, thinking, implementing, paused).
	Status constants.BrainStatus `json:"status"`

	// Narrative is a free-text summary of what the project is doing now.
	Narrative string `json:"narrative"`

	// Updates is the append-only event log. It is never truncated during
	// normal operation.
	Updates []BrainUpdate `json:"updates"`

	// Artifacts maps artifact kind (e.g., "requirements", "types") to its
	// latest versioned record.
	Artifacts map[string]BrainArtifact `json:"artifacts"`

	// Version is the semantic version of the document. Every mutating call
	// increments the patch component by exactly one.
	Version string `json:"version"`
}

// BrainUpdate is one event in the brain's append-only log.
//
// Example JSON representation:
//
//	{
//	    "id": "550e8400-e29b-41d4-a716-446655440000",
//	    "timestamp": "2026-03-10T09:01:30Z",
//	    "agent": "scheduler",
//	    "role": "orchestrator",
//	    "type": "action",
//	    "message": "completed step install-deps"
//	}
type BrainUpdate struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Agent names the subsystem or agent reporting the event.
	Agent string `json:"agent"`

	// Role categorizes the reporter for console display (orchestrator,
	// generator, guard, user).
	Role string `json:"role"`

	// Type is the event kind (thought, action, error, completion).
	Type constants.UpdateKind `json:"type"`

	// Message is the human-readable event text.
	Message string `json:"message"`

	// Metadata stores arbitrary key-value data attached to the event.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BrainArtifact is one named, versioned artifact tracked by the brain.
type BrainArtifact struct {
	// Path is where the artifact content lives on disk, relative to the
	// project root.
	Path string `json:"path"`

	// Content is the artifact text as of the last update.
	Content string `json:"content"`

	// Version starts at 1 on first write and increments on each update.
	Version int `json:"version"`

	// LastUpdated is when the artifact was last written.
	LastUpdated time.Time `json:"lastUpdated"`
}

// SeedBrain returns a fresh brain document in its initial state.
// Reads of an absent or corrupt document and explicit resets both produce
// this value.
func SeedBrain() *Brain {
	return &Brain{
		Status:    constants.BrainStatusIdle,
		Narrative: "",
		Updates:   []BrainUpdate{},
		Artifacts: map[string]BrainArtifact{},
		Version:   constants.BrainSeedVersion,
	}
}

// Clone creates a deep copy of the brain document.
func (b *Brain) Clone() *Brain {
	clone := *b

	if b.Updates != nil {
		clone.Updates = make([]BrainUpdate, len(b.Updates))
		for i, u := range b.Updates {
			clone.Updates[i] = u.Clone()
		}
	}
	if b.Artifacts != nil {
		clone.Artifacts = make(map[string]BrainArtifact, len(b.Artifacts))
		for k, v := range b.Artifacts {
			clone.Artifacts[k] = v
		}
	}

	return &clone
}

// Clone creates a deep copy of the update record.
func (u BrainUpdate) Clone() BrainUpdate {
	clone := u
	if u.Metadata != nil {
		clone.Metadata = make(map[string]any, len(u.Metadata))
		for k, v := range u.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}
