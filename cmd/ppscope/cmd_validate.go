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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runValidate handles `ppscope validate [path...]`.
//
// # Description
//
// Analyzes the given sources and prints every finding. The exit code makes
// the command usable as a CI gate:
//
//	0 - clean, or warnings only
//	1 - at least one error or critical finding
//
// # Examples
//
//	ppscope validate src/
//	ppscope validate --strict include/
func runValidate(cmd *cobra.Command, args []string) {
	result, err := analyzePaths(cmd.Context(), args)
	if err != nil {
		logger.Error("Validation failed", "error", err)
		os.Exit(1)
	}

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
		fmt.Printf("%s\n", e.String())
		if e.Suggestion != "" {
			fmt.Printf("    hint: %s\n", e.Suggestion)
		}
	}

	fmt.Printf("%d files checked: %d critical, %d error, %d warning\n",
		result.TotalFiles, critical, errs, warnings)

	if critical > 0 || errs > 0 {
		os.Exit(1)
	}
}
