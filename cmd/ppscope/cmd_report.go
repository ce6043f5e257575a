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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runReport handles `ppscope report [path...]`.
//
// # Description
//
// Renders an analysis report. Source files and directories run through the
// same pipeline as analyze; a single .json argument is treated as a saved
// result from `ppscope analyze -f json -o ...` and re-rendered without
// re-analyzing.
//
// # Examples
//
//	ppscope report src/                     # Markdown to stdout
//	ppscope report -f html -o report.html . # Standalone HTML page
//	ppscope report -f text saved.json       # Re-render a saved result
func runReport(cmd *cobra.Command, args []string) {
	result, err := loadOrAnalyze(cmd, args)
	if err != nil {
		logger.Error("Report generation failed", "error", err)
		os.Exit(1)
	}
	if err := renderResult(result, outputFormat, outputPath); err != nil {
		logger.Error("Rendering failed", "error", err)
		os.Exit(1)
	}
	if outputPath != "" {
		logger.Info("Report written", "path", outputPath, "format", outputFormat)
	}
}

// loadOrAnalyze reads a saved result when given one .json file, and runs
// the analysis pipeline otherwise.
func loadOrAnalyze(cmd *cobra.Command, args []string) (*analyzer.Result, error) {
	if len(args) == 1 && strings.EqualFold(filepath.Ext(args[0]), ".json") {
		return loadSavedResult(args[0])
	}
	return analyzePaths(cmd.Context(), args)
}

// loadSavedResult decodes a result previously written in JSON format.
func loadSavedResult(path string) (*analyzer.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read saved result %s: %w", path, err)
	}
	var result analyzer.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse saved result %s: %w", path, err)
	}
	return &result, nil
}
