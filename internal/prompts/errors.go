// Package prompts provides centralized prompt management for loom.
// All backend prompts are stored as text/template files and embedded at
// compile time.
package prompts

import "errors"

// Package errors for prompt management.
var (
	// ErrTemplateNotFound indicates the requested template doesn't exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateExecution indicates a failure during template execution.
	ErrTemplateExecution = errors.New("template execution failed")
)
