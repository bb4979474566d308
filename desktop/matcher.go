// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desktop/matcher.go
// Summary: Scans XDG application directories and resolves compositor app ids
// to desktop entries (display name, icon).
// Notes: Compositors report the desktop-entry id as the app id when they can,
// but X11 clients and some toolkits report a WM class instead, so lookup
// falls back through StartupWMClass and a case-insensitive match.

package desktop

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wsmirror/wsmirror/internal/logging"
)

// Entry is the subset of an XDG desktop entry that rendering consumers need.
type Entry struct {
	ID             string // filename stem, e.g. "org.mozilla.firefox"
	Name           string
	Icon           string
	StartupWMClass string
	NoDisplay      bool // NoDisplay=true or Hidden=true in the entry
	Path           string
}

// Matcher resolves app ids to desktop entries through three indexes built
// once at construction. It is immutable after NewMatcher and safe for
// concurrent readers.
type Matcher struct {
	byID      map[string]Entry
	byWMClass map[string]Entry
	byLowerID map[string]Entry
	log       *logrus.Entry
}

// NewMatcher scans dirs (in order) for .desktop files and indexes them.
// Earlier directories shadow later ones, matching XDG data-dir precedence.
// Unreadable directories and files are skipped.
func NewMatcher(dirs []string) *Matcher {
	m := &Matcher{
		byID:      make(map[string]Entry),
		byWMClass: make(map[string]Entry),
		byLowerID: make(map[string]Entry),
		log:       logging.NewLogger("desktop"),
	}

	for _, dir := range dirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		// os.ReadDir sorts by name, so indexing is deterministic.
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".desktop") {
				continue
			}
			path := filepath.Join(dir, f.Name())
			entry, err := parseEntry(path)
			if err != nil {
				m.log.WithError(err).WithField("path", path).Debug("Skipping unreadable desktop entry")
				continue
			}
			m.index(entry)
		}
	}

	m.log.WithField("entries", len(m.byID)).Debug("Desktop entry index built")
	return m
}

// DefaultDirs returns the XDG application directories in precedence order:
// $XDG_DATA_HOME (or ~/.local/share) first, then each $XDG_DATA_DIRS element
// (default /usr/local/share:/usr/share), each with /applications appended.
func DefaultDirs() []string {
	var dirs []string

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home := os.Getenv("HOME"); home != "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d == "" {
			continue
		}
		dirs = append(dirs, filepath.Join(d, "applications"))
	}
	return dirs
}

// Match resolves an app id to a desktop entry. Lookup order: exact filename
// stem, StartupWMClass, then case-insensitive stem. Entries flagged NoDisplay
// still match; the caller decides whether to show them.
func (m *Matcher) Match(appID string) (Entry, bool) {
	if e, ok := m.byID[appID]; ok {
		return e, true
	}
	if e, ok := m.byWMClass[appID]; ok {
		return e, true
	}
	if e, ok := m.byLowerID[strings.ToLower(appID)]; ok {
		return e, true
	}
	return Entry{}, false
}

// DisplayName returns the matched entry's Name, falling back to the app id
// itself when nothing matches or the entry has no Name.
func (m *Matcher) DisplayName(appID string) string {
	if e, ok := m.Match(appID); ok && e.Name != "" {
		return e.Name
	}
	return appID
}

// index registers an entry in all three indexes. First one wins: a stem or
// WM class already present is never overwritten.
func (m *Matcher) index(e Entry) {
	if _, ok := m.byID[e.ID]; !ok {
		m.byID[e.ID] = e
	}
	lower := strings.ToLower(e.ID)
	if _, ok := m.byLowerID[lower]; !ok {
		m.byLowerID[lower] = e
	}
	if e.StartupWMClass != "" {
		if _, ok := m.byWMClass[e.StartupWMClass]; !ok {
			m.byWMClass[e.StartupWMClass] = e
		}
	}
}

// parseEntry reads the [Desktop Entry] group of a .desktop file. Only the
// unlocalized keys the Entry struct carries are kept; other groups (actions,
// translations) are skipped wholesale.
func parseEntry(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	entry := Entry{
		ID:   strings.TrimSuffix(filepath.Base(path), ".desktop"),
		Path: path,
	}

	inDesktopEntry := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "[Desktop Entry]" {
			inDesktopEntry = true
			continue
		}
		if strings.HasPrefix(line, "[") {
			inDesktopEntry = false
			continue
		}
		if !inDesktopEntry {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Localized keys like Name[sv] fall through the switch untouched.
		switch key {
		case "Name":
			entry.Name = value
		case "Icon":
			entry.Icon = value
		case "StartupWMClass":
			entry.StartupWMClass = value
		case "NoDisplay":
			if value == "true" {
				entry.NoDisplay = true
			}
		case "Hidden":
			if value == "true" {
				entry.NoDisplay = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
