// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/watch.go
// Summary: Invokes a callback with the reloaded config when the file changes.
// Notes: Watches the parent directory, not the file. Editors save by writing
// a temp file and renaming over the original, which replaces the inode a
// file-level watch would be pinned to.

package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wsmirror/wsmirror/internal/logging"
)

// Rapid event bursts from a single editor save collapse into one reload.
const watchDebounce = 100 * time.Millisecond

// Watch reloads the config whenever the file at path is written or created
// and passes it to fn. fn runs on the watcher goroutine. The returned stop
// function releases the watcher; it is safe to call more than once.
func Watch(path string, fn func(Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	log := logging.NewLogger("config")
	target := filepath.Clean(path)

	var lastReload time.Time
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if time.Since(lastReload) < watchDebounce {
					continue
				}
				lastReload = time.Now()

				cfg, err := Load(path)
				if err != nil {
					log.WithError(err).Warn("Config changed but failed to reload")
					continue
				}
				log.WithField("path", path).Info("Config reloaded")
				fn(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Error("Config watcher error")
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() { watcher.Close() })
	}
	return stop, nil
}
