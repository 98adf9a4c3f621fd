package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mcpconnect/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/mcpconnect"
	configFileName = "config.yaml"
)

// LoadConfig reads config.yaml from the given directory, or from the user
// config directory when dir is empty. Unset fields keep their defaults, and
// a missing file yields the defaults entirely.
func LoadConfig(dir string) (Config, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("could not determine user config directory: %w", err)
		}
		dir = filepath.Join(homeDir, userConfigDir)
	}

	cfg := GetDefaultConfig()
	path := filepath.Join(dir, configFileName)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("Config", "No config.yaml found at %s, using defaults", path)
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("could not read config from %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config from %s: %w", path, err)
	}

	logging.Info("Config", "Loaded configuration from %s", path)
	return cfg, nil
}
