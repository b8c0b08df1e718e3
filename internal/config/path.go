package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName      = "songdl"
	userConfigFile  = "config.yaml"
	projectFileName = "songdl.yaml"
)

// UserConfigPath honours XDG_CONFIG_HOME and falls back to ~/.config.
func UserConfigPath() (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDirName, userConfigFile), nil
}

func ProjectConfigPath(cwd string) string {
	return filepath.Join(cwd, projectFileName)
}

// ExpandPath expands environment variables and a leading ~. Relative paths
// stay relative to the working directory.
func ExpandPath(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	if expanded != "~" && !strings.HasPrefix(expanded, "~/") {
		return filepath.Clean(expanded), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(expanded, "~"), "/")), nil
}
