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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath      string
	strictMode      bool
	workerCount     int
	noRecursive     bool
	excludePatterns []string
	outputFormat    string
	outputPath      string
	serveAddr       string

	rootCmd = &cobra.Command{
		Use:   "ppscope",
		Short: "A cli to analyze C/C++ preprocessor conditional compilation",
		Long: `ppscope maps the conditional compilation structure of C and C++
sources: which symbols are defined under which #if/#ifdef contexts,
how they depend on each other, and where the directive structure is
broken or suspect.`,
	}

	// --- Analysis ---
	analyzeCmd = &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Analyze preprocessor conditionals in files or directories",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAnalyze, // Defined in cmd_analyze.go
	}

	validateCmd = &cobra.Command{
		Use:   "validate [path...]",
		Short: "Validate directive structure; non-zero exit on errors",
		Args:  cobra.MinimumNArgs(1),
		Run:   runValidate, // Defined in cmd_validate.go
	}

	// --- Reporting ---
	reportCmd = &cobra.Command{
		Use:   "report [path...]",
		Short: "Render an analysis report (markdown, html, text, json)",
		Args:  cobra.MinimumNArgs(1),
		Run:   runReport, // Defined in cmd_report.go
	}

	// --- Service ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the analyzer HTTP service",
		Run:   runServe, // Defined in cmd_serve.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a source tree and re-analyze on change",
		Args:  cobra.ExactArgs(1),
		Run:   runWatch, // Defined in cmd_watch.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the config file (default: ppscope.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false,
		"Enable strict-mode validations (reserved names, include guards, condition smells)")
	rootCmd.PersistentFlags().IntVar(&workerCount, "workers", 0,
		"Concurrent file analyses (0 = number of CPUs)")
	rootCmd.PersistentFlags().BoolVar(&noRecursive, "no-recursive", false,
		"Do not descend into subdirectories")
	rootCmd.PersistentFlags().StringSliceVar(&excludePatterns, "exclude", nil,
		"Glob patterns to skip while scanning")

	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "json",
		"Output format: json, compact, text, markdown, html")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Write output to a file instead of stdout")

	reportCmd.Flags().StringVarP(&outputFormat, "format", "f", "markdown",
		"Report format: markdown, html, text, json")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Write the report to a file instead of stdout")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (overrides config server.addr)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
