// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/logging/logging.go
// Summary: Per-component logrus logger factory shared by all packages.

package logging

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// LevelEnv overrides the log level for every component when set.
const LevelEnv = "WSMIRROR_LOG"

var (
	mu      sync.Mutex
	loggers = make(map[string]*logrus.Entry)
	level   = logrus.InfoLevel
	output  io.Writer = os.Stderr
)

// NewLogger returns the logger for a component, creating it on first use.
// Components share nothing but the configured level, so a chatty component
// can be silenced without touching the rest.
func NewLogger(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}

	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(resolveLevel())
	logger.SetFormatter(formatterFor(output))

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// SetOutput redirects all existing and future loggers. Fullscreen commands
// point this at a file (or discard) so log lines cannot tear the terminal UI.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	for _, entry := range loggers {
		entry.Logger.SetOutput(w)
		entry.Logger.SetFormatter(formatterFor(w))
	}
}

func formatterFor(w io.Writer) *logrus.TextFormatter {
	colors := false
	if f, ok := w.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd())
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
		ForceColors:     colors,
	}
}

// SetLevel applies a level to all existing and future loggers. Invalid names
// are ignored; the environment variable still wins when present.
func SetLevel(name string) {
	parsed, err := logrus.ParseLevel(name)
	if err != nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	level = parsed
	for _, entry := range loggers {
		entry.Logger.SetLevel(resolveLevel())
	}
}

func resolveLevel() logrus.Level {
	if env := os.Getenv(LevelEnv); env != "" {
		if parsed, err := logrus.ParseLevel(env); err == nil {
			return parsed
		}
	}
	return level
}
