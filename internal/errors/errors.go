// Package errors provides centralized error handling for loom.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrWorkflowNotFound indicates the requested workflow definition does not
	// exist in the registry.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowNil indicates a nil workflow definition was provided.
	ErrWorkflowNil = errors.New("workflow cannot be nil")

	// ErrWorkflowIDEmpty indicates a workflow definition has an empty identifier.
	ErrWorkflowIDEmpty = errors.New("workflow id is required")

	// ErrWorkflowInvalid indicates a workflow definition failed validation.
	ErrWorkflowInvalid = errors.New("invalid workflow")

	// ErrWorkflowFileMissing indicates the workflow definition file does not exist.
	ErrWorkflowFileMissing = errors.New("workflow file not found")

	// ErrWorkflowParseError indicates the workflow file has invalid YAML/JSON syntax.
	ErrWorkflowParseError = errors.New("workflow parse error")

	// ErrWorkflowLoadFailed indicates a workflow definition file could not be loaded.
	ErrWorkflowLoadFailed = errors.New("workflow load failed")

	// ErrDuplicateStepID indicates a workflow declares two steps with the same identifier.
	ErrDuplicateStepID = errors.New("duplicate step id")

	// ErrUnknownDependency indicates a step depends on an identifier the
	// workflow never declares.
	ErrUnknownDependency = errors.New("unknown step dependency")

	// ErrStepNotFound indicates the requested step does not exist in the workflow.
	ErrStepNotFound = errors.New("step not found")

	// ErrWorkflowActive indicates an incomplete workflow progress already
	// exists on disk for the project.
	ErrWorkflowActive = errors.New("workflow already in progress")

	// ErrNoActiveWorkflow indicates no workflow progress exists in memory or
	// on disk for the project.
	ErrNoActiveWorkflow = errors.New("no active workflow")

	// ErrStepCommandFailed indicates a workflow step command exited non-zero.
	ErrStepCommandFailed = errors.New("step command failed")

	// ErrProgressNotFound indicates no persisted workflow progress exists.
	ErrProgressNotFound = errors.New("workflow progress not found")

	// ErrProgressCorrupted indicates the persisted progress file is corrupted
	// or unreadable.
	ErrProgressCorrupted = errors.New("workflow progress corrupted")

	// ErrLockTimeout indicates a file lock could not be acquired within the
	// timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrVersionConflict indicates an optimistic write was rejected because the
	// on-disk document version advanced since it was read.
	ErrVersionConflict = errors.New("document version conflict")

	// ErrPermissionDenied indicates the backend rejected the call for
	// authentication or authorization reasons.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTimeout indicates the backend call exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrContextOverflow indicates the request exceeded the backend's context
	// window.
	ErrContextOverflow = errors.New("context window exceeded")

	// ErrAgentSDKRequired indicates a tool-requiring call was routed to a
	// client that cannot execute tools.
	ErrAgentSDKRequired = errors.New("tool-capable client required")

	// ErrClientSelectionFailed indicates no backend client could be selected
	// for the classified request.
	ErrClientSelectionFailed = errors.New("client selection failed")

	// ErrUnknownFailure indicates a backend failure that matched no known
	// category.
	ErrUnknownFailure = errors.New("unknown backend failure")

	// ErrBackendNotInstalled indicates the backend CLI binary is not on PATH.
	ErrBackendNotInstalled = errors.New("backend CLI not installed")

	// ErrBackendInvocation indicates the backend CLI failed to execute or
	// returned a non-zero exit code.
	ErrBackendInvocation = errors.New("backend invocation failed")

	// ErrEmptyResponse indicates the backend returned an empty response.
	ErrEmptyResponse = errors.New("backend returned empty response")

	// ErrInvalidResponseFormat indicates the backend response was not in the
	// expected format.
	ErrInvalidResponseFormat = errors.New("backend response not in expected format")

	// ErrMaxRetriesExceeded indicates the maximum retry attempts have been reached.
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")

	// ErrCommandFailed indicates that a command execution failed.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandTimeout indicates a command exceeded its timeout duration.
	ErrCommandTimeout = errors.New("command timeout exceeded")

	// ErrCommandNotConfigured indicates that a mock command was not configured in tests.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrPromptNotFound indicates the requested prompt template does not exist.
	ErrPromptNotFound = errors.New("prompt template not found")

	// ErrPromptExecution indicates a prompt template failed to render.
	ErrPromptExecution = errors.New("prompt template execution failed")

	// ErrStageNotFound indicates an unknown generation stage name.
	ErrStageNotFound = errors.New("generation stage not found")

	// ErrStagePrerequisite indicates a generation stage ran before the
	// artifact it consumes was produced.
	ErrStagePrerequisite = errors.New("stage prerequisite missing")

	// ErrInventoryEmpty indicates component generation ran with an empty
	// component inventory.
	ErrInventoryEmpty = errors.New("component inventory is empty")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigNotFound indicates that the configuration file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalidBackend indicates an invalid backend configuration value.
	ErrConfigInvalidBackend = errors.New("invalid backend configuration")

	// ErrConfigInvalidGuard indicates an invalid guard configuration value.
	ErrConfigInvalidGuard = errors.New("invalid guard configuration")

	// ErrConfigInvalidGeneration indicates an invalid generation configuration value.
	ErrConfigInvalidGeneration = errors.New("invalid generation configuration")

	// ErrConfigInvalidWorkflow indicates an invalid workflow configuration value.
	ErrConfigInvalidWorkflow = errors.New("invalid workflow configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidDuration indicates that a duration format is invalid.
	ErrInvalidDuration = errors.New("invalid duration format")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotInProjectDir indicates the command requires an initialized project
	// directory but none was found.
	ErrNotInProjectDir = errors.New("not a loom project directory")

	// ErrProjectExists indicates the project state directory already exists.
	ErrProjectExists = errors.New("project already initialized")

	// ErrPathTraversal indicates an attempt to use path traversal in a filename.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrOperationCanceled indicates the user canceled an operation.
	ErrOperationCanceled = errors.New("operation canceled by user")

	// ErrNonInteractiveMode indicates that an operation requiring confirmation
	// was attempted in non-interactive mode without the force flag.
	ErrNonInteractiveMode = errors.New("use --force in non-interactive mode")

	// ErrUserInputRequired indicates user input is required but not provided.
	// Commands should exit with code 2 when this error is returned.
	ErrUserInputRequired = errors.New("user input required")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// This ensures a non-zero exit code while preventing duplicate error messages.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")

	// ErrConflictingFlags indicates that mutually exclusive flags were specified.
	ErrConflictingFlags = errors.New("conflicting flags specified")

	// ErrUnsupportedOS indicates the current operating system is not supported.
	ErrUnsupportedOS = errors.New("unsupported operating system")

	// ErrMissingRequiredTools indicates that required backend tools are missing.
	ErrMissingRequiredTools = errors.New("required tools are missing")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
