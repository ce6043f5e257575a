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

// MarkdownFormatter formats results as Markdown tables and lists.
type MarkdownFormatter struct {
	maxRows int
}

// NewMarkdownFormatter creates a new Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{maxRows: 100}
}

// SetMaxRows sets the maximum number of table rows.
func (f *MarkdownFormatter) SetMaxRows(max int) {
	f.maxRows = max
}

// Format converts the result to a Markdown string.
func (f *MarkdownFormatter) Format(result *analyzer.Result) (string, error) {
	var sb strings.Builder
	if err := f.FormatStreaming(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Name returns the format name.
func (f *MarkdownFormatter) Name() FormatType {
	return FormatMarkdown
}

// FormatStreaming writes Markdown to a writer.
func (f *MarkdownFormatter) FormatStreaming(result *analyzer.Result, w io.Writer) error {
	critical, errs, warnings := severityCounts(result.Errors)

	fmt.Fprintln(w, "## Preprocessor Conditional Analysis")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Files:** %d\n", result.TotalFiles)
	fmt.Fprintf(w, "- **Directives:** %d\n", result.TotalDirectives)
	fmt.Fprintf(w, "- **Defines:** %d\n", result.TotalDefines)
	fmt.Fprintf(w, "- **Findings:** %d critical, %d error, %d warning\n",
		critical, errs, warnings)
	fmt.Fprintln(w)

	f.writeFiles(result, w)
	f.writeDefines(result, w)
	f.writeConditions(result, w)
	f.writeCycles(result, w)
	f.writeFindings(result, w)

	return nil
}

// writeFiles emits the per-file summary table.
func (f *MarkdownFormatter) writeFiles(result *analyzer.Result, w io.Writer) {
	if len(result.Files) == 0 {
		return
	}

	fmt.Fprintln(w, "### Files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| File | Directives | Defines | Max Depth | Findings |")
	fmt.Fprintln(w, "|------|------------|---------|-----------|----------|")
	for _, p := range result.Paths() {
		fr := result.Files[p]
		fmt.Fprintf(w, "| `%s` | %d | %d | %d | %d |\n",
			p, fr.DirectiveCount, len(fr.Defines), fr.MaxDepth, len(fr.Errors))
	}
	fmt.Fprintln(w)
}

// writeDefines emits definitions grouped by derived context expression.
func (f *MarkdownFormatter) writeDefines(result *analyzer.Result, w io.Writer) {
	grouped := result.DefinesByContext()
	if len(grouped) == 0 {
		return
	}

	fmt.Fprintln(w, "### Definitions by Context")
	fmt.Fprintln(w)
	for _, ctx := range sortedContexts(grouped) {
		fmt.Fprintf(w, "**%s**\n\n", ctx)
		for _, d := range grouped[ctx] {
			if d.Body != "" {
				fmt.Fprintf(w, "- `%s` = `%s` (%s:%d)\n", d.Symbol, d.Body, d.FilePath, d.Line)
			} else {
				fmt.Fprintf(w, "- `%s` (%s:%d)\n", d.Symbol, d.FilePath, d.Line)
			}
		}
		fmt.Fprintln(w)
	}
}

// writeConditions emits the condition usage table, most used first.
func (f *MarkdownFormatter) writeConditions(result *analyzer.Result, w io.Writer) {
	if len(result.ConditionUsage) == 0 {
		return
	}

	fmt.Fprintln(w, "### Condition Usage")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Condition | Count |")
	fmt.Fprintln(w, "|-----------|-------|")

	conditions := sortedConditions(result.ConditionUsage)
	truncated := false
	if len(conditions) > f.maxRows {
		conditions = conditions[:f.maxRows]
		truncated = true
	}
	for _, c := range conditions {
		fmt.Fprintf(w, "| `%s` | %d |\n", c.Condition, c.Count)
	}
	fmt.Fprintln(w)

	if truncated {
		fmt.Fprintf(w, "*Showing %d of %d conditions. Use format=json for complete data.*\n\n",
			f.maxRows, len(result.ConditionUsage))
	}
}

// writeCycles emits dependency cycles.
func (f *MarkdownFormatter) writeCycles(result *analyzer.Result, w io.Writer) {
	if len(result.Cycles) == 0 {
		return
	}

	fmt.Fprintln(w, "### Dependency Cycles")
	fmt.Fprintln(w)
	for _, cycle := range result.Cycles {
		fmt.Fprintf(w, "- `%s -> %s`\n", strings.Join(cycle, " -> "), cycle[0])
	}
	fmt.Fprintln(w)
}

// writeFindings emits the findings table.
func (f *MarkdownFormatter) writeFindings(result *analyzer.Result, w io.Writer) {
	if len(result.Errors) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	fmt.Fprintln(w, "### Findings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Severity | Kind | Location | Message |")
	fmt.Fprintln(w, "|----------|------|----------|---------|")

	rows := result.Errors
	truncated := false
	if len(rows) > f.maxRows {
		rows = rows[:f.maxRows]
		truncated = true
	}
	for _, e := range rows {
		fmt.Fprintf(w, "| %s | %s | `%s:%d` | %s |\n",
			e.Severity, e.Kind, e.FilePath, e.Line, escapePipes(e.Message))
	}
	fmt.Fprintln(w)

	if truncated {
		fmt.Fprintf(w, "*Showing %d of %d findings. Use format=json for complete data.*\n\n",
			f.maxRows, len(result.Errors))
	}
}

// escapePipes keeps finding messages from breaking table cells.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
