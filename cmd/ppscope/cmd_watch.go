// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ppscope/services/analyzer"
	"github.com/AleutianAI/ppscope/services/analyzer/watch"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runWatch handles `ppscope watch [path]`.
//
// # Description
//
// Analyzes the tree once, then re-analyzes on every debounced batch of
// source changes and prints a one-line summary per run. Ctrl-C exits.
func runWatch(cmd *cobra.Command, args []string) {
	root := args[0]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial pass over the whole tree.
	if result, err := analyzePaths(ctx, []string{root}); err != nil {
		logger.Error("Initial analysis failed", "error", err)
		os.Exit(1)
	} else {
		printRunSummary(result)
	}

	opts := watch.DefaultOptions()
	opts.IgnorePatterns = append(opts.IgnorePatterns, cfg.Analyzer.ExcludePatterns...)
	opts.IncludeHeaders = cfg.Analyzer.IncludeHeaders
	opts.Logger = logger.Logger

	w, err := watch.New(root, func(changes []watch.Change) {
		logger.Info("Change detected", "files", len(changes))
		// Removed files drop out naturally: the scanner re-walks the tree.
		result, err := analyzePaths(ctx, []string{root})
		if err != nil {
			logger.Error("Re-analysis failed", "error", err)
			return
		}
		printRunSummary(result)
	}, &opts)
	if err != nil {
		logger.Error("Failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("Watching for changes", "root", root)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

// printRunSummary emits the per-run one-liner.
func printRunSummary(result *analyzer.Result) {
	var critical, errs, warnings int
	for _, e := range result.Errors {
		switch e.Severity {
		case analyzer.SeverityCritical:
			critical++
		case analyzer.SeverityError:
			errs++
		default:
			warnings++
		}
	}
	fmt.Printf("%d files, %d directives, %d defines | %d critical, %d error, %d warning\n",
		result.TotalFiles, result.TotalDirectives, result.TotalDefines,
		critical, errs, warnings)
}
