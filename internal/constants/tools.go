// Package constants provides centralized constant values used throughout loom.
// This file contains backend tool constants for the availability probe system.
package constants

import "time"

// Probe timeout configuration.
const (
	// ProbeTimeout is the maximum duration for probing all backend binaries.
	// Probes run in parallel but must complete within this timeout.
	ProbeTimeout = 2 * time.Second
)

// Backend binary names resolved on PATH.
const (
	// ToolClaude is the Claude Code CLI binary.
	ToolClaude = "claude"

	// ToolGemini is the Gemini CLI binary.
	ToolGemini = "gemini"

	// ToolNode is the Node.js runtime, required by generated project scaffolds.
	ToolNode = "node"
)

// Tool version command arguments.
const (
	// VersionFlagStandard is the standard version flag used by the backend CLIs.
	VersionFlagStandard = "--version"
)
