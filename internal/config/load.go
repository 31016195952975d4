package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working and config directories.
const FileName = "lutbake.yaml"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the baker cannot run with.
func (c *Config) Validate() error {
	if c.Data.ResourceRoot == "" {
		return fmt.Errorf("data.resource_root must be set")
	}
	if c.Bake.Workers < 0 {
		return fmt.Errorf("bake.workers must not be negative, got %d", c.Bake.Workers)
	}
	for _, class := range c.Bake.InscatteringClasses {
		if !class.Valid() {
			return fmt.Errorf("bake.inscattering_classes: invalid class %+v", class)
		}
	}
	return c.Bake.Resolution.Validate()
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + FileName,
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "MidgardAtmos")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "MidgardAtmos")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "midgard-atmos")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "midgard-atmos")
	}
}

// loadFromFile merges a YAML file over the existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
