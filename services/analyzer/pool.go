// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// RunConfig configures a multi-file analysis run.
type RunConfig struct {
	// Workers bounds concurrent file analyses. Default: GOMAXPROCS.
	Workers int

	// Options are the per-file analysis options.
	Options Options
}

// AnalyzeFiles analyzes the given files through a bounded worker pool and
// merges the per-file results deterministically by sorted path.
//
// Per-file analyses are independent and share no mutable state. An
// unexpected failure in one file (unreadable file, panic) is caught at the
// file-task boundary and converted into a file-level error entry; the other
// files complete normally. Cancellation is file-granular: files not yet
// started when ctx is cancelled are reported as cancelled entries, files
// already in flight run to completion.
func AnalyzeFiles(ctx context.Context, paths []string, cfg RunConfig) (*Result, error) {
	return analyzeAll(ctx, paths, func(path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}, cfg)
}

// AnalyzeSources analyzes already-decoded sources keyed by path. Used by
// callers that hold text in memory, such as the HTTP service.
func AnalyzeSources(ctx context.Context, sources map[string]string, cfg RunConfig) (*Result, error) {
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return analyzeAll(ctx, paths, func(path string) (string, error) {
		return sources[path], nil
	}, cfg)
}

func analyzeAll(ctx context.Context, paths []string, load func(string) (string, error), cfg RunConfig) (*Result, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*FileResult, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileFailure(path, err)
				return nil
			}
			results[i] = analyzeOne(path, load, cfg.Options)
			return nil
		})
	}
	// Workers never return errors; failures are file-level result entries.
	_ = g.Wait()

	return Merge(results)
}

// analyzeOne runs a single file task with panic isolation.
func analyzeOne(path string, load func(string) (string, error), opts Options) (fr *FileResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during file analysis", "file", path, "panic", r)
			fr = FileFailure(path, fmt.Errorf("panic: %v", r))
		}
	}()

	source, err := load(path)
	if err != nil {
		return FileFailure(path, err)
	}
	return Analyze(source, path, opts)
}
