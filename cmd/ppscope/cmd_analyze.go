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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ppscope/services/analyzer"
	"github.com/AleutianAI/ppscope/services/analyzer/format"
	"github.com/AleutianAI/ppscope/services/analyzer/scanner"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runAnalyze handles `ppscope analyze [path...]`.
//
// # Description
//
// Scans the given files and directories for C/C++ sources, analyzes the
// preprocessor conditional structure of each concurrently, and writes the
// merged result in the requested format.
//
// # Examples
//
//	ppscope analyze src/                   # JSON result for a tree
//	ppscope analyze -f text main.c util.c  # Text summary for two files
//	ppscope analyze --strict -o out.json . # Strict mode, written to a file
func runAnalyze(cmd *cobra.Command, args []string) {
	result, err := analyzePaths(cmd.Context(), args)
	if err != nil {
		logger.Error("Analysis failed", "error", err)
		os.Exit(1)
	}
	if err := renderResult(result, outputFormat, outputPath); err != nil {
		logger.Error("Rendering failed", "error", err)
		os.Exit(1)
	}
}

// analyzePaths expands the arguments into source files and runs the full
// analysis pipeline over them.
func analyzePaths(ctx context.Context, paths []string) (*analyzer.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	sc := scanner.New(scanner.Options{
		Recursive:       cfg.Analyzer.Recursive,
		IncludeHeaders:  cfg.Analyzer.IncludeHeaders,
		ExcludePatterns: cfg.Analyzer.ExcludePatterns,
	})

	var files []string
	for _, path := range paths {
		found, err := sc.Scan(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		files = append(files, found...)
	}

	logger.Info("Analyzing sources",
		"files", len(files), "strict", cfg.Analyzer.Strict)

	return analyzer.AnalyzeFiles(ctx, files, analyzer.RunConfig{
		Workers: cfg.Analyzer.Workers,
		Options: analyzer.Options{Strict: cfg.Analyzer.Strict},
	})
}

// renderResult writes the result in the requested format to stdout or a file.
func renderResult(result *analyzer.Result, formatName, path string) error {
	formatter, err := format.New(format.FormatType(formatName))
	if err != nil {
		return err
	}

	if path == "" {
		if err := formatter.FormatStreaming(result, os.Stdout); err != nil {
			return err
		}
		fmt.Println()
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return formatter.FormatStreaming(result, f)
}
