// Package backend provides the CLI-subprocess clients that perform
// generation on behalf of the router. Each client wraps one external
// binary (claude, gemini), reports its own capabilities, and translates
// subprocess failures into the shared error taxonomy.
//
// IMPORTANT: This package may import internal/config, internal/constants,
// internal/domain, internal/errors, and internal/ctxutil. It MUST NOT
// import internal/router or internal/pipeline.
package backend

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/loomworks/loom/internal/domain"
)

// Client is the capability surface a backend exposes to the router.
// Selection interrogates the capability methods; the generation methods
// are invoked after selection.
type Client interface {
	// Kind returns the backend identifier ("claude", "gemini").
	Kind() string

	// SupportsTools reports whether the backend can execute tool calls
	// against the project directory.
	SupportsTools() bool

	// SupportsStreaming reports whether the backend can stream output
	// for long-running operations.
	SupportsStreaming() bool

	// GenerateText produces plain text from a prompt.
	GenerateText(ctx context.Context, req domain.TextRequest) (string, error)

	// GenerateComponent produces component source code from a prompt and
	// project context.
	GenerateComponent(ctx context.Context, req domain.ComponentRequest) (string, error)

	// RefineComponent rewrites existing component source per the prompt.
	RefineComponent(ctx context.Context, req domain.RefineRequest) (string, error)
}

// ToolClient extends Client with the tool-augmented operations. Only
// backends whose CLI can read and write project files implement it.
type ToolClient interface {
	Client

	// RunWorkflow hands the backend a multi-step task to drive itself.
	RunWorkflow(ctx context.Context, req domain.WorkflowRequest) (*domain.GenerateResult, error)

	// GenerateWithTools runs generation with an explicit tool allowlist.
	GenerateWithTools(ctx context.Context, req domain.ToolRequest) (*domain.GenerateResult, error)
}

// CommandExecutor abstracts subprocess execution for testing.
// The production implementation runs the exec.Cmd as built; mocks record
// the command and fabricate output.
type CommandExecutor interface {
	// Execute runs the command and returns stdout, stderr, and any error.
	// The context is passed for mock implementations that need
	// cancellation awareness.
	Execute(ctx context.Context, cmd *exec.Cmd) (stdout, stderr []byte, err error)
}

// DefaultExecutor is the production implementation of CommandExecutor.
type DefaultExecutor struct{}

// Execute runs the command and captures its output.
func (e *DefaultExecutor) Execute(_ context.Context, cmd *exec.Cmd) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// composeContext renders the generation context sections into prompt
// text. Absent sections are omitted entirely so short requests stay short.
func composeContext(gc domain.GenerationContext) string {
	var b strings.Builder
	writeSection(&b, "Requirements", gc.Requirements)
	writeSection(&b, "Type Definitions", gc.Types)
	writeSection(&b, "Design Tokens", gc.Brand)
	return b.String()
}

func writeSection(b *strings.Builder, heading, body string) {
	if body == "" {
		return
	}
	b.WriteString("## ")
	b.WriteString(heading)
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}

// componentPrompt assembles the full prompt for a component generation call.
func componentPrompt(req domain.ComponentRequest) string {
	return composeContext(req.Context) + req.Prompt
}

// refinePrompt assembles the full prompt for a refinement call. The
// current source rides along in a fenced block.
func refinePrompt(req domain.RefineRequest) string {
	var b strings.Builder
	b.WriteString(composeContext(req.Context))
	b.WriteString("## Current Component\n\n```tsx\n")
	b.WriteString(req.Code)
	b.WriteString("\n```\n\n")
	b.WriteString(req.Prompt)
	return b.String()
}

// workflowPrompt assembles the full prompt for a backend-driven workflow.
func workflowPrompt(req domain.WorkflowRequest) string {
	return composeContext(req.Context) + req.Prompt
}

// toolPrompt assembles the full prompt for a tool-augmented call.
func toolPrompt(req domain.ToolRequest) string {
	return composeContext(req.Context) + req.Prompt
}
