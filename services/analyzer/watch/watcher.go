// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs analysis when watched C/C++ sources change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/ppscope/services/analyzer/scanner"
)

// Change represents a file system change to a watched source file.
type Change struct {
	// Path is the path to the changed file.
	Path string

	// Op is the type of change.
	Op Op

	// Time is when the change was detected.
	Time time.Time
}

// Op represents the type of file operation.
type Op int

const (
	// OpCreate indicates a file was created.
	OpCreate Op = iota

	// OpWrite indicates a file was modified.
	OpWrite

	// OpRemove indicates a file was deleted.
	OpRemove

	// OpRename indicates a file was renamed.
	OpRename
)

// String returns the string representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called with a debounced batch of source changes.
type Handler func(changes []Change)

// Options configures the Watcher.
type Options struct {
	// DebounceWindow is how long to wait for more changes before the
	// handler fires. Default: 250ms
	DebounceWindow time.Duration

	// IgnorePatterns are names or glob patterns to skip.
	// Default: [".git", "build", "node_modules", "*.swp", "*.tmp"]
	IgnorePatterns []string

	// IncludeHeaders also reacts to header file changes. Default: true,
	// headers carry most conditional logic.
	IncludeHeaders bool

	// BufferSize is the size of the change buffer channel.
	// Default: 1000
	BufferSize int

	// Logger receives watch errors. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 250 * time.Millisecond,
		IgnorePatterns: []string{".git", "build", "node_modules", "*.swp", "*.tmp"},
		IncludeHeaders: true,
		BufferSize:     1000,
	}
}

// Watcher watches a source tree and batches changes with a debounce window,
// so saving a file repeatedly during editing triggers one re-analysis, not
// one per write.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	root           string
	watcher        *fsnotify.Watcher
	handler        Handler
	debounce       time.Duration
	ignorePatterns []string
	includeHeaders bool
	logger         *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// New creates a watcher for the given root directory.
//
// # Inputs
//
//   - root: Path to the directory to watch.
//   - handler: Function called with batched changes after debounce.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready-to-use watcher (call Start to begin watching).
//   - error: Non-nil if the watcher could not be created.
func New(root string, handler Handler, opts *Options) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 250 * time.Millisecond
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:           root,
		watcher:        fsw,
		handler:        handler,
		debounce:       opts.DebounceWindow,
		ignorePatterns: opts.IgnorePatterns,
		includeHeaders: opts.IncludeHeaders,
		logger:         logger,
		changes:        make(chan Change, opts.BufferSize),
		done:           make(chan struct{}),
	}, nil
}

// Start begins watching. The root and all non-ignored subdirectories are
// watched recursively; directories created later are added as they appear.
// Both goroutines exit when Stop() is called or the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true if the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// addRecursive adds a directory and all subdirectories to the watch list.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldIgnore checks if a path matches any ignore pattern.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	for _, pattern := range w.ignorePatterns {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(path, string(filepath.Separator)+pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevant reports whether a changed path is an analyzable source file.
func (w *Watcher) relevant(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if scanner.SourceExtensions[ext] {
		return true
	}
	return w.includeHeaders && scanner.HeaderExtensions[ext]
}

// processEvents converts fsnotify events to Changes and feeds the debouncer.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			// New directories join the watch list regardless of extension.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory",
							"path", event.Name, "error", err)
					}
					continue
				}
			}

			if !w.relevant(event.Name) {
				continue
			}

			change := Change{
				Path: event.Name,
				Time: time.Now(),
				Op:   convertOp(event.Op),
			}

			select {
			case w.changes <- change:
			default:
				w.logger.Warn("change buffer full, dropping event", "path", event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// debounceLoop batches changes and calls the handler when the window
// expires without new activity.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var pending []Change
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case change := <-w.changes:
			pending = append(pending, change)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) > 0 {
				batch := dedupe(pending)
				pending = nil
				w.handler(batch)
			}
		}
	}
}

// dedupe collapses repeated events for one path, keeping the latest.
func dedupe(changes []Change) []Change {
	latest := make(map[string]Change, len(changes))
	order := make([]string, 0, len(changes))
	for _, c := range changes {
		if _, seen := latest[c.Path]; !seen {
			order = append(order, c.Path)
		}
		latest[c.Path] = c
	}
	out := make([]Change, 0, len(order))
	for _, p := range order {
		out = append(out, latest[p])
	}
	return out
}

// convertOp maps fsnotify operations to Ops.
func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}
