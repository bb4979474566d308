// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desktop/matcher_test.go
// Summary: Verifies desktop-entry parsing, index precedence, and XDG
// directory resolution against fixture files.

package desktop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
}

func TestMatchByFilenameStem(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "org.mozilla.firefox.desktop", `[Desktop Entry]
Name=Firefox
Icon=firefox
Type=Application
`)

	m := NewMatcher([]string{dir})

	e, ok := m.Match("org.mozilla.firefox")
	require.True(t, ok)
	assert.Equal(t, "Firefox", e.Name)
	assert.Equal(t, "firefox", e.Icon)
	assert.Equal(t, "org.mozilla.firefox", e.ID)
	assert.Equal(t, filepath.Join(dir, "org.mozilla.firefox.desktop"), e.Path)
	assert.False(t, e.NoDisplay)
}

func TestMatchUnknownID(t *testing.T) {
	m := NewMatcher([]string{t.TempDir()})

	_, ok := m.Match("does.not.exist")
	assert.False(t, ok)
}

func TestExactStemBeatsWMClass(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "kitty.desktop", `[Desktop Entry]
Name=Kitty Terminal
`)
	writeEntry(t, dir, "impostor.desktop", `[Desktop Entry]
Name=Impostor
StartupWMClass=kitty
`)

	m := NewMatcher([]string{dir})

	e, ok := m.Match("kitty")
	require.True(t, ok)
	assert.Equal(t, "Kitty Terminal", e.Name)
}

func TestWMClassBeatsLowercaseStem(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "app-one.desktop", `[Desktop Entry]
Name=App One
StartupWMClass=MyApp
`)
	writeEntry(t, dir, "myapp.desktop", `[Desktop Entry]
Name=My App
`)

	m := NewMatcher([]string{dir})

	// No exact stem "MyApp" exists, so WM class wins over the
	// case-insensitive stem match.
	e, ok := m.Match("MyApp")
	require.True(t, ok)
	assert.Equal(t, "App One", e.Name)
}

func TestCaseInsensitiveFallback(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "Thunderbird.desktop", `[Desktop Entry]
Name=Thunderbird Mail
`)

	m := NewMatcher([]string{dir})

	e, ok := m.Match("thunderbird")
	require.True(t, ok)
	assert.Equal(t, "Thunderbird Mail", e.Name)
}

func TestNoDisplayAndHiddenAreFlagged(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "helper.desktop", `[Desktop Entry]
Name=Background Helper
NoDisplay=true
`)
	writeEntry(t, dir, "removed.desktop", `[Desktop Entry]
Name=Removed App
Hidden=true
`)

	m := NewMatcher([]string{dir})

	e, ok := m.Match("helper")
	require.True(t, ok, "flagged entries still match")
	assert.True(t, e.NoDisplay)

	e, ok = m.Match("removed")
	require.True(t, ok)
	assert.True(t, e.NoDisplay)
}

func TestOnlyDesktopEntryGroupParsed(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "term.desktop", `[Desktop Entry]
Name=Terminal
Icon=term

[Desktop Action new-window]
Name=New Window
Icon=window-new
`)

	m := NewMatcher([]string{dir})

	e, ok := m.Match("term")
	require.True(t, ok)
	assert.Equal(t, "Terminal", e.Name)
	assert.Equal(t, "term", e.Icon)
}

func TestLocalizedKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "fw.desktop", `[Desktop Entry]
Name[de]=Brandmauer
Name=Firewall
Name[fr]=Pare-feu
`)

	m := NewMatcher([]string{dir})

	e, ok := m.Match("fw")
	require.True(t, ok)
	assert.Equal(t, "Firewall", e.Name)
}

func TestFirstDirectoryWins(t *testing.T) {
	home := t.TempDir()
	system := t.TempDir()
	writeEntry(t, home, "editor.desktop", `[Desktop Entry]
Name=Patched Editor
`)
	writeEntry(t, system, "editor.desktop", `[Desktop Entry]
Name=Editor
`)

	m := NewMatcher([]string{home, system})

	e, ok := m.Match("editor")
	require.True(t, ok)
	assert.Equal(t, "Patched Editor", e.Name)
}

func TestNonDesktopFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "README.txt", "not a desktop entry")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.desktop"), 0755))

	m := NewMatcher([]string{dir, filepath.Join(dir, "missing")})

	_, ok := m.Match("README")
	assert.False(t, ok)
	_, ok = m.Match("nested")
	assert.False(t, ok)
}

func TestDisplayNameFallsBackToAppID(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "named.desktop", `[Desktop Entry]
Name=Named App
`)
	writeEntry(t, dir, "nameless.desktop", `[Desktop Entry]
Icon=blank
`)

	m := NewMatcher([]string{dir})

	assert.Equal(t, "Named App", m.DisplayName("named"))
	assert.Equal(t, "nameless", m.DisplayName("nameless"))
	assert.Equal(t, "org.unknown.app", m.DisplayName("org.unknown.app"))
}

func TestDefaultDirsHonorsEnvironment(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/home")
	t.Setenv("XDG_DATA_DIRS", "/opt/share:/vendor/share")

	dirs := DefaultDirs()
	assert.Equal(t, []string{
		"/custom/home/applications",
		"/opt/share/applications",
		"/vendor/share/applications",
	}, dirs)
}

func TestDefaultDirsFallsBackToStandardPaths(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_DATA_DIRS", "")

	dirs := DefaultDirs()
	assert.Equal(t, []string{
		"/home/tester/.local/share/applications",
		"/usr/local/share/applications",
		"/usr/share/applications",
	}, dirs)
}
