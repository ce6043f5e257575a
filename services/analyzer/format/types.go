// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package format renders analysis results into report formats.
//
// Rendering is strictly a downstream concern of the analyzer: formatters
// consume a finished Result and never filter or suppress findings on their
// own.
package format

import (
	"fmt"
	"io"
	"sort"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

// FormatType represents the type of output format.
type FormatType string

const (
	// FormatJSON is full indented JSON output (default).
	FormatJSON FormatType = "json"

	// FormatCompact is JSON without indentation.
	FormatCompact FormatType = "compact"

	// FormatText is plain text report output.
	FormatText FormatType = "text"

	// FormatMarkdown is table/list report output.
	FormatMarkdown FormatType = "markdown"

	// FormatHTML is standalone HTML report output.
	FormatHTML FormatType = "html"
)

// Formatter renders a merged analysis result.
type Formatter interface {
	// Format converts the result to a formatted string.
	Format(result *analyzer.Result) (string, error)

	// FormatStreaming writes formatted output to a writer.
	FormatStreaming(result *analyzer.Result, w io.Writer) error

	// Name returns the format name.
	Name() FormatType
}

// New returns the formatter for the given type.
func New(t FormatType) (Formatter, error) {
	switch t {
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCompact:
		return NewJSONFormatterCompact(), nil
	case FormatText:
		return NewTextFormatter(), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case FormatHTML:
		return NewHTMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format type: %s", t)
	}
}

// conditionCount pairs a condition text with its usage count for sorted
// report output.
type conditionCount struct {
	Condition string
	Count     int
}

// sortedConditions returns condition usage sorted by count descending, then
// by condition text, so reports are stable.
func sortedConditions(usage map[string]int) []conditionCount {
	out := make([]conditionCount, 0, len(usage))
	for cond, n := range usage {
		out = append(out, conditionCount{Condition: cond, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Condition < out[j].Condition
	})
	return out
}

// sortedContexts returns the context keys of grouped defines with "global"
// first and the rest alphabetical.
func sortedContexts(grouped map[string][]analyzer.DefineRecord) []string {
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		if k != "global" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := grouped["global"]; ok {
		keys = append([]string{"global"}, keys...)
	}
	return keys
}

// severityCounts tallies findings by severity.
func severityCounts(errors []analyzer.ValidationError) (critical, errs, warnings int) {
	for _, e := range errors {
		switch e.Severity {
		case analyzer.SeverityCritical:
			critical++
		case analyzer.SeverityError:
			errs++
		case analyzer.SeverityWarning:
			warnings++
		}
	}
	return
}
