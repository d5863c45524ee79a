package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/ctxutil"
	"github.com/loomworks/loom/internal/domain"
	loomerrors "github.com/loomworks/loom/internal/errors"
)

// geminiInfo contains gemini-specific CLI metadata for error messages.
//
//nolint:gochecknoglobals // Constant-like structure
var geminiInfo = cliInfo{
	Name:        "gemini",
	InstallHint: "npm install -g @google/gemini-cli",
	EnvVar:      "GEMINI_API_KEY",
}

// GeminiClient invokes the gemini CLI for plain text generation. It is
// not tool capable; tool and workflow operations never route here.
type GeminiClient struct {
	cfg      *config.BackendConfig
	executor CommandExecutor
	logger   zerolog.Logger
}

// GeminiOption is a functional option for configuring GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiLogger sets the logger for the GeminiClient.
func WithGeminiLogger(logger zerolog.Logger) GeminiOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

// NewGeminiClient creates a GeminiClient. If executor is nil, a
// DefaultExecutor runs real subprocesses.
func NewGeminiClient(cfg *config.BackendConfig, executor CommandExecutor, opts ...GeminiOption) *GeminiClient {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	c := &GeminiClient{
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
func (c *GeminiClient) Kind() string { return "gemini" }

// SupportsTools implements Client.
func (c *GeminiClient) SupportsTools() bool { return false }

// SupportsStreaming implements Client.
func (c *GeminiClient) SupportsStreaming() bool { return false }

// GenerateText implements Client.
func (c *GeminiClient) GenerateText(ctx context.Context, req domain.TextRequest) (string, error) {
	return c.invoke(ctx, req.Prompt, req.Options, "")
}

// GenerateComponent implements Client.
func (c *GeminiClient) GenerateComponent(ctx context.Context, req domain.ComponentRequest) (string, error) {
	return c.invoke(ctx, componentPrompt(req), req.Options, req.Context.WorkingDir)
}

// RefineComponent implements Client.
func (c *GeminiClient) RefineComponent(ctx context.Context, req domain.RefineRequest) (string, error) {
	return c.invoke(ctx, refinePrompt(req), req.Options, req.Context.WorkingDir)
}

// invoke performs a single gemini CLI execution and extracts the
// response text. Retries belong to the caller.
func (c *GeminiClient) invoke(ctx context.Context, prompt string, opts domain.GenerateOptions, workingDir string) (string, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return "", err
	}

	timeout := opts.Timeout
	if timeout == 0 && c.cfg != nil {
		timeout = c.cfg.GenerateTimeout
	}
	if timeout == 0 {
		timeout = constants.DefaultGenerateTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := c.buildCommand(runCtx, opts, workingDir)
	cmd.Stdin = strings.NewReader(prompt)

	c.logger.Debug().
		Str("cli", "gemini").
		Strs("args", cmd.Args[1:]).
		Str("working_dir", workingDir).
		Int("prompt_length", len(prompt)).
		Dur("timeout", timeout).
		Msg("executing gemini CLI")

	stdout, stderr, err := c.executor.Execute(runCtx, cmd)
	if err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", wrapExecutionError(geminiInfo, err, stderr)
	}

	return parseGeminiResponse(stdout)
}

// buildCommand constructs the gemini CLI command with appropriate flags.
func (c *GeminiClient) buildCommand(ctx context.Context, opts domain.GenerateOptions, workingDir string) *exec.Cmd {
	args := []string{"-o", "json"}

	model := opts.Model
	if model == "" && c.cfg != nil {
		model = c.cfg.Model
	}
	if model != "" {
		args = append(args, "-m", model)
	}

	cmd := exec.CommandContext(ctx, "gemini", args...)
	if workingDir != "" {
		cmd.Dir = workingDir
	}
	return cmd
}

// geminiResponse is the JSON shape the gemini CLI prints with -o json.
type geminiResponse struct {
	Response string `json:"response"`
	Stats    struct {
		Models map[string]json.RawMessage `json:"models"`
	} `json:"stats"`
}

// parseGeminiResponse extracts the response text from the CLI's JSON
// output. Some builds print plain text despite -o json, so a non-JSON
// body falls back to the raw text.
func parseGeminiResponse(data []byte) (string, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", fmt.Errorf("%w: gemini", loomerrors.ErrEmptyResponse)
	}

	if strings.HasPrefix(trimmed, "{") {
		var resp geminiResponse
		if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
			return "", fmt.Errorf("%w: gemini: %s", loomerrors.ErrInvalidResponseFormat, err.Error())
		}
		if resp.Response == "" {
			return "", fmt.Errorf("%w: gemini", loomerrors.ErrEmptyResponse)
		}
		return resp.Response, nil
	}

	return trimmed, nil
}

// Compile-time check that GeminiClient implements Client.
var _ Client = (*GeminiClient)(nil)
