package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables read by the CLI.
const (
	EnvConfigPath = "FLASHDECK_CONFIG_PATH"
	EnvHome       = "FLASHDECK_HOME"
	EnvToken      = "FLASHDECK_TOKEN"
	EnvAuthSecret = "FLASHDECK_AUTH_SECRET"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FLASHDECK_CONFIG_PATH: config file location (default: ~/.config/flashdeck.toml)
//   - FLASHDECK_HOME: base directory for flashdeck data (default: ~/.local/share/flashdeck)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "flashdeck.toml"), nil
}

// getBaseDir follows the XDG data layout unless FLASHDECK_HOME is set.
func getBaseDir() (string, error) {
	if path := os.Getenv(EnvHome); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "flashdeck"), nil
}
