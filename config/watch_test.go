// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/watch_test.go
// Summary: Verifies reload-on-write behavior of the fsnotify config watcher.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: DP-1\n"), 0644))

	reloads := make(chan Config, 4)
	stop, err := Watch(path, func(c Config) { reloads <- c })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("output: HDMI-1\n"), 0644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, "HDMI-1", cfg.Output)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed after config write")
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: DP-1\n"), 0644))

	reloads := make(chan Config, 4)
	stop, err := Watch(path, func(c Config) { reloads <- c })
	require.NoError(t, err)
	defer stop()

	// The sibling write must not reload; the target write that follows must.
	// Callback ordering proves the sibling was skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("output: WRONG\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("output: DP-3\n"), 0644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, "DP-3", cfg.Output)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed after config write")
	}
}

func TestWatchStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	stop, err := Watch(path, func(Config) {})
	require.NoError(t, err)
	stop()
	stop()
}

func TestWatchMissingDirectoryErrors(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing", "config.yaml"), func(Config) {})
	assert.Error(t, err)
}
