// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of write events into one reload.
// Editors typically emit several events per save.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the catalog whenever the config file at path changes and
// invokes onReload after each successful reload (callers typically clear
// the result cache there).
//
// Watch blocks until ctx is cancelled; run it on its own goroutine.
// A reload failure keeps the previous configuration active and is logged,
// never fatal.
func (c *Catalog) Watch(ctx context.Context, path string, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	slog.Info("watching catalog config", "path", path)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := c.Reload(path); err != nil {
				slog.Error("catalog reload failed, keeping previous config",
					"path", path, "error", err)
				continue
			}
			slog.Info("catalog config reloaded", "path", path)
			if onReload != nil {
				onReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog watcher error", "error", err)
		}
	}
}
