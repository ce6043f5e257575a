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
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ppscope/pkg/logging"
	"github.com/AleutianAI/ppscope/services/analyzer/config"
)

var (
	cfg    config.Config
	logger *logging.Logger
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			// An unnamed config file is optional.
			if _, err := os.Stat("ppscope.yaml"); err == nil {
				path = "ppscope.yaml"
			}
		}

		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}
		cfg = loaded
		applyFlagOverrides(cmd)

		logger, err = logging.New(logging.Config{
			Level: logging.ParseLevel(cfg.Log.Level),
			JSON:  cfg.Log.Format == "json",
		})
		if err != nil {
			log.Fatalf("Error initializing logging: %v", err)
		}
	}
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("strict") {
		cfg.Analyzer.Strict = strictMode
	}
	if cmd.Flags().Changed("workers") {
		cfg.Analyzer.Workers = workerCount
	}
	if cmd.Flags().Changed("no-recursive") {
		cfg.Analyzer.Recursive = !noRecursive
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Analyzer.ExcludePatterns = excludePatterns
	}
}
