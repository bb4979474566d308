// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: YAML configuration with environment overrides for wsmirror.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by all wsmirror commands.
type Config struct {
	// Socket is the compositor (or simulator) session socket path.
	Socket string `yaml:"socket"`
	// Output selects which output's workspace groups are mirrored.
	// Empty means "first output advertised".
	Output string `yaml:"output"`
	// LogLevel names a logrus level; unknown values fall back to info.
	LogLevel string `yaml:"log_level"`
	Panel    Panel  `yaml:"panel"`
}

// Panel holds presentation settings for wsmirror-panel. These are the only
// settings picked up live by Watch; everything else is read once at startup.
type Panel struct {
	// ShowEmpty keeps workspaces with no toplevels in the panel listing.
	ShowEmpty bool `yaml:"show_empty"`
	// MaxTitle is the display width toplevel titles are truncated to.
	MaxTitle int `yaml:"max_title"`
}

// Defaults returns the configuration used when no file and no environment
// overrides are present.
func Defaults() Config {
	return Config{
		Socket:   "/tmp/wsmirror.sock",
		LogLevel: "info",
		Panel: Panel{
			ShowEmpty: true,
			MaxTitle:  48,
		},
	}
}

// DefaultPath returns the standard config file location:
// $XDG_CONFIG_HOME/wsmirror/config.yaml, falling back to ~/.config.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wsmirror", "config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "wsmirror", "config.yaml")
	}
	return ""
}

// Load reads the config file at path on top of Defaults, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets the environment override the file. Useful for one-off runs
// against a simulator without editing the config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("WSMIRROR_SOCKET"); v != "" {
		cfg.Socket = v
	}
	if v := os.Getenv("WSMIRROR_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("WSMIRROR_LOG"); v != "" {
		cfg.LogLevel = v
	}
}
