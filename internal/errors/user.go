package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries is the pre-built mapping of sentinel errors to their user-facing messages.
// This single source of truth ensures UserMessage and Actionable stay in sync.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Workflows
	// ===================
	{
		err: ErrWorkflowNotFound,
		info: ErrorInfo{
			Message: "The specified workflow does not exist.",
			Action:  "Run 'loom workflow list' to see available workflows.",
		},
	},
	{
		err: ErrWorkflowActive,
		info: ErrorInfo{
			Message: "Another workflow is already in progress.",
			Action:  "Continue it with 'loom workflow continue' or stop it with 'loom workflow stop'.",
		},
	},
	{
		err: ErrNoActiveWorkflow,
		info: ErrorInfo{
			Message: "No workflow is currently in progress.",
			Action:  "Start one with 'loom workflow start <id>'.",
		},
	},
	{
		err: ErrStepNotFound,
		info: ErrorInfo{
			Message: "The workflow references a step that does not exist.",
			Action:  "Run 'loom workflow describe <id>' to inspect the step list.",
		},
	},
	{
		err: ErrDuplicateStepID,
		info: ErrorInfo{
			Message: "The workflow declares two steps with the same ID.",
			Action:  "Give every step in the workflow file a unique ID.",
		},
	},
	{
		err: ErrUnknownDependency,
		info: ErrorInfo{
			Message: "A workflow step depends on a step that is never declared.",
			Action:  "Check the 'dependencies' lists in the workflow file.",
		},
	},
	{
		err: ErrStepCommandFailed,
		info: ErrorInfo{
			Message: "A workflow step command failed.",
			Action:  "Run the printed command manually, then 'loom workflow continue'.",
		},
	},
	{
		err: ErrWorkflowFileMissing,
		info: ErrorInfo{
			Message: "The workflow definition file does not exist.",
			Action:  "Check the file path and ensure the workflow file exists.",
		},
	},
	{
		err: ErrWorkflowParseError,
		info: ErrorInfo{
			Message: "The workflow file has invalid YAML syntax.",
			Action:  "Check the workflow file for YAML syntax errors.",
		},
	},
	{
		err: ErrWorkflowInvalid,
		info: ErrorInfo{
			Message: "The workflow definition failed validation.",
			Action:  "Run 'loom workflow describe <id>' and fix the reported issues.",
		},
	},

	// ===================
	// Progress & State
	// ===================
	{
		err: ErrProgressCorrupted,
		info: ErrorInfo{
			Message: "The saved workflow progress file is corrupted.",
			Action:  "Stop the workflow with 'loom workflow stop' and start again.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Could not acquire lock. Another process may be using the resource.",
			Action:  "Wait and try again, or check for stuck processes.",
		},
	},
	{
		err: ErrVersionConflict,
		info: ErrorInfo{
			Message: "The state file changed while this command was running.",
			Action:  "Retry the command. If it persists, check for a concurrent loom process.",
		},
	},

	// ===================
	// Backend & Routing
	// ===================
	{
		err: ErrPermissionDenied,
		info: ErrorInfo{
			Message: "The backend rejected the request due to permissions.",
			Action:  "Check your backend CLI authentication (e.g. API keys) and retry.",
		},
	},
	{
		err: ErrTimeout,
		info: ErrorInfo{
			Message: "The backend request timed out.",
			Action:  "Retry, or increase the generation timeout in config.yaml.",
		},
	},
	{
		err: ErrContextOverflow,
		info: ErrorInfo{
			Message: "The request exceeded the backend's context window.",
			Action:  "Reduce the prompt or context size and retry.",
		},
	},
	{
		err: ErrAgentSDKRequired,
		info: ErrorInfo{
			Message: "This operation needs a tool-capable backend.",
			Action:  "Install the Claude CLI or check availability with 'loom doctor'.",
		},
	},
	{
		err: ErrClientSelectionFailed,
		info: ErrorInfo{
			Message: "No backend client could handle this request.",
			Action:  "Run 'loom doctor' to check which backends are installed.",
		},
	},
	{
		err: ErrBackendNotInstalled,
		info: ErrorInfo{
			Message: "The backend CLI is not installed.",
			Action:  "Install the required CLI tool (e.g., 'npm install -g @anthropic-ai/claude-code').",
		},
	},
	{
		err: ErrBackendInvocation,
		info: ErrorInfo{
			Message: "Failed to communicate with the backend CLI.",
			Action:  "Verify the backend CLI works on its own, then retry.",
		},
	},
	{
		err: ErrEmptyResponse,
		info: ErrorInfo{
			Message: "The backend returned an empty response.",
			Action:  "Try again. If the issue persists, check your API key and quota.",
		},
	},
	{
		err: ErrInvalidResponseFormat,
		info: ErrorInfo{
			Message: "The backend response was not in the expected format.",
			Action:  "This may be a temporary issue. Try again.",
		},
	},
	{
		err: ErrMaxRetriesExceeded,
		info: ErrorInfo{
			Message: "Maximum retry attempts reached.",
			Action:  "Review the errors, fix issues manually, or increase retry limit in config.",
		},
	},
	{
		err: ErrCommandTimeout,
		info: ErrorInfo{
			Message: "Command execution timed out.",
			Action:  "Increase the timeout or check if the command is stuck.",
		},
	},

	// ===================
	// Generation
	// ===================
	{
		err: ErrPromptNotFound,
		info: ErrorInfo{
			Message: "The requested prompt template does not exist.",
			Action:  "This is a loom bug. Please report it.",
		},
	},
	{
		err: ErrStageNotFound,
		info: ErrorInfo{
			Message: "The specified generation stage does not exist.",
			Action:  "Run 'loom generate --help' to see available stages.",
		},
	},
	{
		err: ErrStagePrerequisite,
		info: ErrorInfo{
			Message: "An earlier generation stage has not produced its output yet.",
			Action:  "Run the stages in order, or 'loom workflow start full-pipeline'.",
		},
	},
	{
		err: ErrInventoryEmpty,
		info: ErrorInfo{
			Message: "The component inventory is empty.",
			Action:  "Run 'loom generate inventory' before generating components.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNotFound,
		info: ErrorInfo{
			Message: "Configuration file not found.",
			Action:  "Run 'loom init' in your project to create one.",
		},
	},
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is not loaded.",
			Action:  "Ensure .loom/config.yaml exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalidBackend,
		info: ErrorInfo{
			Message: "Invalid backend configuration.",
			Action:  "Check the 'backend' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidGuard,
		info: ErrorInfo{
			Message: "Invalid guard configuration.",
			Action:  "Check the 'guard' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidGeneration,
		info: ErrorInfo{
			Message: "Invalid generation configuration.",
			Action:  "Check the 'generation' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidWorkflow,
		info: ErrorInfo{
			Message: "Invalid workflow configuration.",
			Action:  "Check the 'workflow' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrInvalidDuration,
		info: ErrorInfo{
			Message: "Invalid duration format.",
			Action:  "Use formats like '30s', '5m', '1h' for durations.",
		},
	},
	{
		err: ErrValueOutOfRange,
		info: ErrorInfo{
			Message: "Value is outside the allowed range.",
			Action:  "Check the documentation for valid value ranges.",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value was not provided.",
			Action:  "Provide the required value and try again.",
		},
	},

	// ===================
	// User Interaction
	// ===================
	{
		err: ErrOperationCanceled,
		info: ErrorInfo{
			Message: "Operation was canceled.",
			Action:  "",
		},
	},
	{
		err: ErrUserInputRequired,
		info: ErrorInfo{
			Message: "This operation requires user input.",
			Action:  "Run in an interactive terminal or provide required flags.",
		},
	},
	{
		err: ErrNonInteractiveMode,
		info: ErrorInfo{
			Message: "This operation requires confirmation in non-interactive mode.",
			Action:  "Use --force flag to skip confirmation.",
		},
	},

	// ===================
	// Misc
	// ===================
	{
		err: ErrUnsupportedOS,
		info: ErrorInfo{
			Message: "Your operating system is not supported for this operation.",
			Action:  "Loom supports macOS, Linux, and Windows.",
		},
	},
	{
		err: ErrConflictingFlags,
		info: ErrorInfo{
			Message: "The specified flags cannot be used together.",
			Action:  "Check the command help for valid flag combinations.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
	{
		err: ErrNotInProjectDir,
		info: ErrorInfo{
			Message: "This command must be run from an initialized project directory.",
			Action:  "Run 'loom init' to initialize the project.",
		},
	},
	{
		err: ErrProjectExists,
		info: ErrorInfo{
			Message: "This project is already initialized.",
			Action:  "Remove the .loom directory first if you want to start over.",
		},
	},
	{
		err: ErrMissingRequiredTools,
		info: ErrorInfo{
			Message: "Required tools are missing or outdated.",
			Action:  "Run 'loom doctor' to check which backends are installed.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
// Built once from errorInfoEntries during package initialization.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

// buildErrorInfoMap creates a map from the errorInfoEntries slice.
// This is called once during package init for O(1) direct lookups.
func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries O(1) direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	// Fast path: O(1) lookup for direct sentinel errors
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	// Slow path: errors.Is() for wrapped errors
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// This function maps sentinel errors to helpful, actionable messages
// that are suitable for display to end users.
//
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
//
// For errors that are not recoverable or have no clear action, the action
// string will be empty.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
