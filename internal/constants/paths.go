package constants

// Directory names used by loom for organizing data.
const (
	// LoomHome is the hidden directory name where loom stores global data.
	// This directory is created in the user's home directory.
	LoomHome = ".loom"

	// ProjectStateDir is the hidden directory name created inside a project
	// for per-project state (progress, brain, config overlay).
	ProjectStateDir = ".loom"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// File names used by loom for state persistence.
const (
	// ProgressFileName is the JSON file that stores workflow progress within
	// a project's state directory.
	ProgressFileName = "workflow.json"

	// BrainFileName is the JSON file that stores the shared context document
	// within a project's state directory.
	BrainFileName = "brain.json"

	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.loom/logs/loom.log
	CLILogFileName = "loom.log"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global loom configuration file.
	// This file is located in the loom home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigName is the name of the project-level configuration file.
	// This file is located in the project's state directory.
	ProjectConfigName = "config.yaml"
)

// HomeEnvVar is the environment variable that overrides the loom home
// directory location.
const HomeEnvVar = "LOOM_HOME"
