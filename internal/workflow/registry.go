// Package workflow provides the dependency-ordered step scheduler for loom.
//
// A workflow is a named, ordered collection of shell-executable steps with
// declared dependencies. The Registry holds the known definitions, the
// Store persists per-project progress, and the Scheduler selects and
// executes runnable steps, persisting after every one so an interrupted
// run can resume from disk.
//
// IMPORTANT: This package may import internal/constants, internal/errors,
// internal/config, internal/domain, internal/clock, internal/ctxutil, and
// internal/flock. It MUST NOT import internal/router or internal/cli.
package workflow

import (
	"fmt"
	"sort"
	"sync"

	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// Registry holds workflow definitions keyed by ID. Registering a
// definition with an existing ID overwrites the earlier one. The registry
// hands out deep copies so callers cannot mutate registered definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*domain.WorkflowDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*domain.WorkflowDefinition)}
}

// Register validates and stores a definition. A definition with the same
// ID as an existing one replaces it.
func (r *Registry) Register(def *domain.WorkflowDefinition) error {
	if def == nil {
		return loomerrors.ErrWorkflowNil
	}
	if def.ID == "" {
		return loomerrors.ErrWorkflowIDEmpty
	}
	if err := ValidateDefinition(def); err != nil {
		return fmt.Errorf("workflow %q: %w", def.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.ID] = def.Clone()
	return nil
}

// Get returns a deep copy of the definition with the given ID.
func (r *Registry) Get(id string) (*domain.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("workflow %q: %w", id, loomerrors.ErrWorkflowNotFound)
	}
	return def.Clone(), nil
}

// List returns deep copies of all registered definitions, sorted by ID
// for stable display.
func (r *Registry) List() []*domain.WorkflowDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*domain.WorkflowDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def.Clone())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// ValidateDefinition checks the structural invariants of a definition:
// every step has an ID and a command, step IDs are unique, and every
// dependency references a step declared earlier in the list. The
// earlier-declaration requirement is what lets the scheduler resolve the
// next step with a forward scan instead of a topological sort.
func ValidateDefinition(def *domain.WorkflowDefinition) error {
	if len(def.Steps) == 0 {
		return fmt.Errorf("%w: no steps declared", loomerrors.ErrWorkflowInvalid)
	}

	declared := make(map[string]bool, len(def.Steps))
	for i, step := range def.Steps {
		if step.ID == "" {
			return fmt.Errorf("%w: step %d has no id", loomerrors.ErrWorkflowInvalid, i)
		}
		if step.Command == "" {
			return fmt.Errorf("%w: step %q has no command", loomerrors.ErrWorkflowInvalid, step.ID)
		}
		if declared[step.ID] {
			return fmt.Errorf("step %q: %w", step.ID, loomerrors.ErrDuplicateStepID)
		}
		for _, dep := range step.Dependencies {
			if !declared[dep] {
				return fmt.Errorf("step %q depends on %q: %w", step.ID, dep, loomerrors.ErrUnknownDependency)
			}
		}
		declared[step.ID] = true
	}
	return nil
}
