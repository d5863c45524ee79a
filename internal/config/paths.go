package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/errors"
)

// GlobalConfigDir returns the path to the global loom configuration directory.
// This is typically ~/.loom on Unix systems. If the LOOM_HOME environment
// variable is set, it takes precedence.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	if loomHome := os.Getenv(constants.HomeEnvVar); loomHome != "" {
		return loomHome, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.LoomHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration directory.
// This is always .loom relative to the project root.
func ProjectConfigDir() string {
	return constants.ProjectStateDir
}

// GlobalConfigPath returns the full path to the global configuration file.
// This is typically ~/.loom/config.yaml on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
// This is always .loom/config.yaml relative to the project root.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.ProjectConfigName)
}
