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

import "fmt"

// Options are the resolved options for one analysis run.
type Options struct {
	// Strict enables the additional naming and style checks: reserved
	// identifiers, include guards, and condition smells.
	Strict bool `json:"strict"`
}

// Analyze runs the full single-file pipeline over already-decoded source
// text: lex, context tracking, cross-directive validation, dependency
// extraction.
//
// The pass is synchronous and strictly sequential; the context stack is an
// ordered automaton over source lines. No condition is fatal: malformed
// input becomes findings in the result, never a Go error. Re-running Analyze
// on unchanged input yields an identical result.
func Analyze(source, path string, opts Options) *FileResult {
	lexed := lexSource(source, path)

	fr := &FileResult{
		FilePath:  path,
		LineCount: lexed.LineCount,
	}
	fr.Errors = append(fr.Errors, lexed.Errors...)

	engine := newStackEngine(path)
	for i := range lexed.Directives {
		engine.process(&lexed.Directives[i])
	}
	engine.finish()

	fr.Directives = lexed.Directives
	fr.Defines = engine.defines
	fr.Errors = append(fr.Errors, engine.errors...)
	fr.DirectiveCount = len(fr.Directives)
	fr.MaxDepth = engine.maxDepth
	fr.KindCounts = countKinds(fr.Directives)
	fr.ConditionUsage = countConditions(fr.Directives)

	(&validator{strict: opts.Strict}).run(fr)

	fr.Graph = buildFileGraph(fr)
	return fr
}

// FileFailure builds a file-level result for a file that could not be read
// or processed. The failure is data in the aggregated result; it never
// aborts the other files of a run.
func FileFailure(path string, cause error) *FileResult {
	return &FileResult{
		FilePath: path,
		Errors: []ValidationError{{
			Kind:     ErrKindFileError,
			Severity: SeverityError,
			FilePath: path,
			Message:  fmt.Sprintf("failed to process file: %v", cause),
		}},
	}
}

// Merge assembles per-file results into one deterministic aggregate. Results
// are merged in sorted file-path order regardless of the order they were
// produced in, so concurrent runs are reproducible. Dependency-cycle
// warnings are detected over the union graph and appended last.
func Merge(results []*FileResult) (*Result, error) {
	merged := &Result{
		Files:          make(map[string]*FileResult, len(results)),
		ConditionUsage: make(map[string]int),
		Graph:          NewDependencyGraph(),
	}

	for _, fr := range results {
		if fr == nil {
			return nil, ErrNilResult
		}
		merged.Files[fr.FilePath] = fr
	}

	for _, path := range merged.Paths() {
		fr := merged.Files[path]
		merged.TotalFiles++
		merged.TotalDirectives += fr.DirectiveCount
		merged.TotalDefines += len(fr.Defines)
		for cond, n := range fr.ConditionUsage {
			merged.ConditionUsage[cond] += n
		}
		merged.Graph.Merge(fr.Graph)
		merged.Errors = append(merged.Errors, fr.Errors...)
	}

	merged.Cycles = merged.Graph.FindCycles()
	for _, cycle := range merged.Cycles {
		merged.Errors = append(merged.Errors, ValidationError{
			Kind:     ErrKindCircularDependency,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("circular symbol dependency: %s", formatCycle(cycle)),
		})
	}
	return merged, nil
}

// buildFileGraph derives the symbol dependency graph for one file: an edge
// from each defined symbol to every symbol referenced across its snapshot
// frames, plus the identifiers its macro body mentions.
func buildFileGraph(fr *FileResult) *DependencyGraph {
	g := NewDependencyGraph()
	for _, def := range fr.Defines {
		if def.Symbol == "" {
			continue
		}
		for _, ref := range def.References {
			g.AddEdge(def.Symbol, ref)
		}
		for _, ref := range extractSymbols(def.Body) {
			g.AddEdge(def.Symbol, ref)
		}
	}
	return g
}

func countKinds(directives []Directive) map[string]int {
	if len(directives) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, d := range directives {
		counts[d.Kind.String()]++
	}
	return counts
}

// countConditions tallies usage of each condition text across the file's
// conditional directives. The empty-condition sentinel is bookkeeping, not a
// meaningful condition, and is excluded.
func countConditions(directives []Directive) map[string]int {
	counts := make(map[string]int)
	for _, d := range directives {
		switch d.Kind {
		case KindIfdef, KindIfndef, KindIf, KindElif:
			if d.Condition != "" && d.Condition != emptyCondition {
				counts[d.Condition]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

func formatCycle(cycle []string) string {
	out := ""
	for _, s := range cycle {
		out += s + " -> "
	}
	if len(cycle) > 0 {
		out += cycle[0]
	}
	return out
}
