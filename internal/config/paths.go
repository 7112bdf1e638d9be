// ABOUTME: Standard filesystem paths for bio configuration
// ABOUTME: Resolves $XDG_CONFIG_HOME/bio (default ~/.config/bio) and .bio.yaml in the project

package config

import (
	"os"
	"path/filepath"
)

const (
	appDirName      = "bio"
	globalFileName  = "config.yaml"
	ProjectFileName = ".bio.yaml"
)

// GlobalDir returns the user-global config directory.
func GlobalDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appDirName)
	}
	return filepath.Join(home, ".config", appDirName)
}

// GlobalConfigFile returns the path to the global config file.
func GlobalConfigFile() string {
	return filepath.Join(GlobalDir(), globalFileName)
}

// ProjectConfigFile returns the path to the project-local config file.
func ProjectConfigFile(projectRoot string) string {
	if projectRoot == "" {
		projectRoot = "."
	}
	return filepath.Join(projectRoot, ProjectFileName)
}
