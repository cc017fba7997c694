// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package todostore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow batches bursts of file events into one Change.
// A whole-file rewrite produces several events back to back; consumers
// only care that the file settled.
const DefaultDebounceWindow = 100 * time.Millisecond

// ChangeOp is the kind of file change observed on the backing file.
type ChangeOp int

const (
	// ChangeWrite indicates the file content was rewritten.
	ChangeWrite ChangeOp = iota

	// ChangeCreate indicates the file appeared.
	ChangeCreate

	// ChangeRemove indicates the file was deleted or renamed away.
	ChangeRemove
)

// String returns the string representation of the operation.
func (op ChangeOp) String() string {
	switch op {
	case ChangeWrite:
		return "write"
	case ChangeCreate:
		return "create"
	case ChangeRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is one debounced observation of the backing file changing.
type Change struct {
	// Path is the backing file path.
	Path string

	// Op is the kind of change that settled the debounce window.
	Op ChangeOp

	// Time is when the change was emitted.
	Time time.Time
}

// Watch emits a Change whenever the backing file is modified.
//
// # Description
//
// Watches the file's parent directory (so creations and renames of the
// file itself are seen) and filters to events on the backing file.
// Bursts of events within the debounce window collapse into a single
// Change. The returned channel closes when ctx is canceled or the
// underlying watcher fails.
//
// # Inputs
//
//   - ctx: Cancels the watch and releases the OS watcher.
//   - debounce: Batch window; zero or negative selects DefaultDebounceWindow.
//
// # Outputs
//
//   - <-chan Change: Debounced change notifications.
//   - error: If the parent directory cannot be watched.
//
// # Examples
//
//	changes, err := store.Watch(ctx, 0)
//	if err != nil {
//	    return err
//	}
//	for ch := range changes {
//	    fmt.Println("todo file", ch.Op, "at", ch.Time)
//	}
//
// # Limitations
//
//   - Changes made by this process and by other processes are
//     indistinguishable.
func (s *FileStore) Watch(ctx context.Context, debounce time.Duration) (<-chan Change, error) {
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	out := make(chan Change, 16)

	go func() {
		defer close(out)
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		var pending *Change

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				op, relevant := mapFsnotifyOp(ev.Op)
				if !relevant {
					continue
				}
				pending = &Change{Path: s.path, Op: op, Time: time.Now()}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)

			case <-timer.C:
				if pending != nil {
					select {
					case out <- *pending:
					case <-ctx.Done():
						return
					}
					pending = nil
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Todo file watcher error", "path", s.path, "error", err)
			}
		}
	}()

	return out, nil
}

// mapFsnotifyOp reduces fsnotify's operation bitmask to a ChangeOp.
// Chmod-only events carry no content change and are dropped.
func mapFsnotifyOp(op fsnotify.Op) (ChangeOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ChangeCreate, true
	case op.Has(fsnotify.Write):
		return ChangeWrite, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ChangeRemove, true
	default:
		return 0, false
	}
}
