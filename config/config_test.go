// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config_test.go
// Summary: Covers default handling, YAML parsing, and environment overrides.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv shields tests from WSMIRROR_* set in the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WSMIRROR_SOCKET", "")
	t.Setenv("WSMIRROR_OUTPUT", "")
	t.Setenv("WSMIRROR_LOG", "")
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "/tmp/wsmirror.sock", cfg.Socket)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Panel.ShowEmpty)
}

func TestLoadReadsAllFields(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
socket: /run/user/1000/compositor.sock
output: DP-2
log_level: debug
panel:
  show_empty: false
  max_title: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/run/user/1000/compositor.sock", cfg.Socket)
	assert.Equal(t, "DP-2", cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Panel.ShowEmpty)
	assert.Equal(t, 20, cfg.Panel.MaxTitle)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "output: HDMI-1\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "HDMI-1", cfg.Output)
	assert.Equal(t, "/tmp/wsmirror.sock", cfg.Socket)
	assert.Equal(t, 48, cfg.Panel.MaxTitle)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
socket: /from/file.sock
output: DP-1
log_level: warn
`)
	t.Setenv("WSMIRROR_SOCKET", "/from/env.sock")
	t.Setenv("WSMIRROR_OUTPUT", "HDMI-1")
	t.Setenv("WSMIRROR_LOG", "trace")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.sock", cfg.Socket)
	assert.Equal(t, "HDMI-1", cfg.Output)
	assert.Equal(t, "trace", cfg.LogLevel)
}

func TestLoadMalformedFileErrors(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "socket: [unterminated\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/wsmirror/config.yaml", DefaultPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.config/wsmirror/config.yaml", DefaultPath())
}
