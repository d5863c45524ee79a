package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/ctxutil"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// claudeInfo contains claude-specific CLI metadata for error messages.
//
//nolint:gochecknoglobals // Constant-like structure
var claudeInfo = cliInfo{
	Name:        "claude",
	InstallHint: "npm install -g @anthropic-ai/claude-code",
	EnvVar:      "ANTHROPIC_API_KEY",
}

// ClaudeClient invokes the claude CLI in print mode. It is the only
// tool-capable backend: workflow and tool operations route here.
type ClaudeClient struct {
	cfg      *config.BackendConfig
	executor CommandExecutor
	logger   zerolog.Logger
}

// ClaudeOption is a functional option for configuring ClaudeClient.
type ClaudeOption func(*ClaudeClient)

// WithClaudeLogger sets the logger for the ClaudeClient.
func WithClaudeLogger(logger zerolog.Logger) ClaudeOption {
	return func(c *ClaudeClient) {
		c.logger = logger
	}
}

// NewClaudeClient creates a ClaudeClient. If executor is nil, a
// DefaultExecutor runs real subprocesses.
func NewClaudeClient(cfg *config.BackendConfig, executor CommandExecutor, opts ...ClaudeOption) *ClaudeClient {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	c := &ClaudeClient{
		cfg:      cfg,
		executor: executor,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind implements Client.
func (c *ClaudeClient) Kind() string { return "claude" }

// SupportsTools implements Client.
func (c *ClaudeClient) SupportsTools() bool { return true }

// SupportsStreaming implements Client.
func (c *ClaudeClient) SupportsStreaming() bool { return true }

// GenerateText implements Client.
func (c *ClaudeClient) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	resp, err := c.invoke(ctx, req.Prompt, req.Options, "", nil, c.generateTimeout(req.Options))
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// GenerateComponent implements Client.
func (c *ClaudeClient) GenerateComponent(ctx context.Context, req domain.ComponentRequest) (string, error) {
	resp, err := c.invoke(ctx, componentPrompt(req), req.Options, req.Context.WorkingDir, nil, c.generateTimeout(req.Options))
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// RefineComponent implements Client.
func (c *ClaudeClient) RefineComponent(ctx context.Context, req domain.RefineRequest) (string, error) {
	resp, err := c.invoke(ctx, refinePrompt(req), req.Options, req.Context.WorkingDir, nil, c.generateTimeout(req.Options))
	if err != nil {
		return "", err
	}
	return resp.Result, nil
}

// RunWorkflow implements ToolClient. The backend drives the multi-step
// task itself, so the call runs under the longer tool timeout.
func (c *ClaudeClient) RunWorkflow(ctx context.Context, req domain.WorkflowRequest) (*domain.GenerateResult, error) {
	resp, err := c.invoke(ctx, workflowPrompt(req), req.Options, req.Context.WorkingDir, nil, c.toolTimeout(req.Options))
	if err != nil {
		return nil, err
	}
	return resp.toGenerateResult(), nil
}

// GenerateWithTools implements ToolClient.
func (c *ClaudeClient) GenerateWithTools(ctx context.Context, req domain.ToolRequest) (*domain.GenerateResult, error) {
	resp, err := c.invoke(ctx, toolPrompt(req), req.Options, req.Context.WorkingDir, req.Tools, c.toolTimeout(req.Options))
	if err != nil {
		return nil, err
	}
	return resp.toGenerateResult(), nil
}

// generateTimeout resolves the deadline for plain generation calls:
// request > config > default.
func (c *ClaudeClient) generateTimeout(opts domain.GenerateOptions) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if c.cfg != nil && c.cfg.GenerateTimeout > 0 {
		return c.cfg.GenerateTimeout
	}
	return constants.DefaultGenerateTimeout
}

// toolTimeout resolves the deadline for tool-enabled calls.
func (c *ClaudeClient) toolTimeout(opts domain.GenerateOptions) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if c.cfg != nil && c.cfg.ToolTimeout > 0 {
		return c.cfg.ToolTimeout
	}
	return constants.DefaultToolTimeout
}

// invoke performs a single claude CLI execution and parses the JSON
// response. Retries belong to the caller.
func (c *ClaudeClient) invoke(ctx context.Context, prompt string, opts domain.GenerateOptions, workingDir string, tools []domain.ToolSpec, timeout time.Duration) (*claudeResponse, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := c.buildCommand(runCtx, opts, workingDir, tools)

	// Prompt rides on stdin so large contexts never hit argv limits.
	cmd.Stdin = strings.NewReader(prompt)

	c.logger.Debug().
		Str("cli", "claude").
		Strs("args", cmd.Args[1:]).
		Str("working_dir", workingDir).
		Int("prompt_length", len(prompt)).
		Dur("timeout", timeout).
		Msg("executing claude CLI")

	stdout, stderr, err := c.executor.Execute(runCtx, cmd)
	if err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, wrapExecutionError(claudeInfo, err, stderr)
	}

	resp, err := parseClaudeResponse(stdout)
	if err != nil {
		return nil, err
	}
	if resp.IsError {
		return nil, classifyErrorResponse(claudeInfo, resp.Result)
	}
	if resp.Result == "" {
		return nil, fmt.Errorf("%w: claude", loomerrors.ErrEmptyResponse)
	}
	return resp, nil
}

// buildCommand constructs the claude CLI command with appropriate flags.
func (c *ClaudeClient) buildCommand(ctx context.Context, opts domain.GenerateOptions, workingDir string, tools []domain.ToolSpec) *exec.Cmd {
	args := []string{
		"-p", // print mode (non-interactive)
		"--output-format", "json",
	}

	// Determine model: request > config
	model := opts.Model
	if model == "" && c.cfg != nil {
		model = c.cfg.Model
	}
	if model != "" {
		args = append(args, "--model", model)
	}

	if opts.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.SystemPrompt)
	}

	if len(tools) > 0 {
		names := make([]string, 0, len(tools))
		for _, tool := range tools {
			names = append(names, tool.Name)
		}
		args = append(args, "--allowedTools", strings.Join(names, ","))
	}

	cmd := exec.CommandContext(ctx, "claude", args...)
	if workingDir != "" {
		cmd.Dir = workingDir
	}
	return cmd
}

// claudeResponse is the JSON shape the claude CLI prints with
// --output-format json.
type claudeResponse struct {
	Type      string  `json:"type"`
	Subtype   string  `json:"subtype"`
	IsError   bool    `json:"is_error"`
	Result    string  `json:"result"`
	SessionID string  `json:"session_id"`
	Duration  int     `json:"duration_ms"`
	NumTurns  int     `json:"num_turns"`
	TotalCost float64 `json:"total_cost_usd"`
}

// parseClaudeResponse parses the CLI's JSON output.
func parseClaudeResponse(data []byte) (*claudeResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: claude", loomerrors.ErrEmptyResponse)
	}
	var resp claudeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: claude: %s", loomerrors.ErrInvalidResponseFormat, err.Error())
	}
	return &resp, nil
}

// toGenerateResult maps the CLI response onto the domain result.
func (r *claudeResponse) toGenerateResult() *domain.GenerateResult {
	return &domain.GenerateResult{
		Output:       r.Result,
		SessionID:    r.SessionID,
		DurationMs:   r.Duration,
		NumTurns:     r.NumTurns,
		TotalCostUSD: r.TotalCost,
	}
}

// Compile-time check that ClaudeClient implements ToolClient.
var _ ToolClient = (*ClaudeClient)(nil)
