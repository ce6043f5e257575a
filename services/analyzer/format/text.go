// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

// TextFormatter formats results as a plain text report suitable for
// terminals and log capture.
type TextFormatter struct {
	maxConditions int
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{maxConditions: 20}
}

// Format converts the result to a text report string.
func (f *TextFormatter) Format(result *analyzer.Result) (string, error) {
	var sb strings.Builder
	if err := f.FormatStreaming(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Name returns the format name.
func (f *TextFormatter) Name() FormatType {
	return FormatText
}

// FormatStreaming writes the text report to a writer.
func (f *TextFormatter) FormatStreaming(result *analyzer.Result, w io.Writer) error {
	critical, errs, warnings := severityCounts(result.Errors)

	fmt.Fprintln(w, "Preprocessor Conditional Analysis")
	fmt.Fprintln(w, strings.Repeat("=", 33))
	fmt.Fprintf(w, "Files:      %d\n", result.TotalFiles)
	fmt.Fprintf(w, "Directives: %d\n", result.TotalDirectives)
	fmt.Fprintf(w, "Defines:    %d\n", result.TotalDefines)
	fmt.Fprintf(w, "Findings:   %d critical, %d error, %d warning\n",
		critical, errs, warnings)
	fmt.Fprintln(w)

	grouped := result.DefinesByContext()
	if len(grouped) > 0 {
		fmt.Fprintln(w, "Definitions by context:")
		for _, ctx := range sortedContexts(grouped) {
			fmt.Fprintf(w, "  [%s]\n", ctx)
			for _, d := range grouped[ctx] {
				if d.Body != "" {
					fmt.Fprintf(w, "    %s = %s (%s:%d)\n", d.Symbol, d.Body, d.FilePath, d.Line)
				} else {
					fmt.Fprintf(w, "    %s (%s:%d)\n", d.Symbol, d.FilePath, d.Line)
				}
			}
		}
		fmt.Fprintln(w)
	}

	if len(result.ConditionUsage) > 0 {
		fmt.Fprintln(w, "Condition usage:")
		conditions := sortedConditions(result.ConditionUsage)
		truncated := false
		if len(conditions) > f.maxConditions {
			conditions = conditions[:f.maxConditions]
			truncated = true
		}
		for _, c := range conditions {
			fmt.Fprintf(w, "  %4d  %s\n", c.Count, c.Condition)
		}
		if truncated {
			fmt.Fprintf(w, "  ... %d more\n", len(result.ConditionUsage)-f.maxConditions)
		}
		fmt.Fprintln(w)
	}

	if len(result.Cycles) > 0 {
		fmt.Fprintln(w, "Dependency cycles:")
		for _, cycle := range result.Cycles {
			fmt.Fprintf(w, "  %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
		}
		fmt.Fprintln(w)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "Findings:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e.String())
			if e.Suggestion != "" {
				fmt.Fprintf(w, "      hint: %s\n", e.Suggestion)
			}
		}
	} else {
		fmt.Fprintln(w, "No findings.")
	}

	return nil
}
