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

import (
	"fmt"
	"sort"
)

// stackEngine processes one file's directive sequence in order, maintaining
// the stack of open conditional frames and snapshotting it into each
// definition. The "state" is the full stack configuration.
//
// A fresh engine is constructed per file-level call; nothing is shared across
// files, which is what makes concurrent per-file analysis safe.
type stackEngine struct {
	path     string
	stack    ContextStack
	defines  []DefineRecord
	errors   []ValidationError
	maxDepth int
}

func newStackEngine(path string) *stackEngine {
	return &stackEngine{path: path}
}

// process applies one directive's transition and snapshots the resulting
// context into the record. The dispatch is exhaustive over the closed kind
// set: an unhandled kind is a programming error, not a recoverable input.
func (e *stackEngine) process(d *Directive) {
	switch d.Kind {
	case KindIfdef, KindIfndef, KindIf:
		e.handleOpen(d)
	case KindElif:
		e.handleElif(d)
	case KindElse:
		e.handleElse(d)
	case KindEndif:
		e.handleEndif(d)
	case KindDefine:
		e.handleDefine(d)
	case KindUndef, KindInclude, KindPragma, KindWarning, KindError, KindUnknown:
		// Recorded verbatim; never affect the stack.
	default:
		panic(fmt.Sprintf("analyzer: unhandled directive kind %d", d.Kind))
	}
	d.Context = e.stack.ConditionTexts()
}

// handleOpen pushes a new frame for #ifdef/#ifndef/#if.
func (e *stackEngine) handleOpen(d *Directive) {
	e.stack.Push(ContextFrame{
		Condition:    d.Condition,
		OpenedAtLine: d.Line,
		Symbols:      extractSymbols(d.Condition),
	})
	if e.stack.Depth() > e.maxDepth {
		e.maxDepth = e.stack.Depth()
	}
}

// handleElif replaces the top frame with one carrying the elif's own
// condition, at unchanged depth. Sibling exclusivity is deliberately not
// folded into the condition text: the new frame contributes its own text
// alone to any AND-join.
func (e *stackEngine) handleElif(d *Directive) {
	if _, ok := e.stack.Pop(); !ok {
		e.structural(ErrKindOrphanElif, d,
			"orphaned #elif without matching conditional",
			"add a matching #if, #ifdef, or #ifndef directive")
		return
	}
	e.stack.Push(ContextFrame{
		Condition:    d.Condition,
		OpenedAtLine: d.Line,
		Symbols:      extractSymbols(d.Condition),
	})
}

// handleElse replaces the top frame with its negation.
func (e *stackEngine) handleElse(d *Directive) {
	prev, ok := e.stack.Pop()
	if !ok {
		e.structural(ErrKindOrphanElse, d,
			"orphaned #else without matching conditional",
			"add a matching #if, #ifdef, or #ifndef directive")
		return
	}
	next := ContextFrame{
		Negated:      true,
		OpenedAtLine: d.Line,
		Symbols:      prev.Symbols,
	}
	if prev.sentinel() {
		// Negating an empty condition is meaningless; the sentinel still
		// keeps depth consistent for #endif matching.
		next.Condition = emptyCondition
	} else {
		next.Condition = "!" + prev.Condition
	}
	e.stack.Push(next)
}

// handleEndif pops one frame. On an empty stack the depth stays at 0 and the
// directive is reported, never a negative pop.
func (e *stackEngine) handleEndif(d *Directive) {
	if _, ok := e.stack.Pop(); !ok {
		e.structural(ErrKindUnmatchedEndif, d,
			"orphaned #endif without matching conditional",
			"remove this #endif or add a matching conditional directive")
	}
}

// handleDefine captures an independent snapshot of the current stack into a
// new DefineRecord. The stack itself is untouched.
func (e *stackEngine) handleDefine(d *Directive) {
	frames := e.stack.Snapshot()
	e.defines = append(e.defines, DefineRecord{
		Symbol:     d.Symbol,
		Body:       d.Body,
		FilePath:   d.FilePath,
		Line:       d.Line,
		Frames:     frames,
		Expression: joinConditions(frames),
		References: unionSymbols(frames),
		Depth:      len(frames),
	})
}

// finish reports every frame still open at end of file, innermost first,
// then synthesizes closes so the terminal state is depth 0.
func (e *stackEngine) finish() {
	for e.stack.Depth() > 0 {
		f, _ := e.stack.Pop()
		cond := f.Condition
		if f.sentinel() {
			cond = "(empty)"
		}
		e.errors = append(e.errors, ValidationError{
			Kind:       ErrKindMissingEndif,
			Severity:   SeverityCritical,
			FilePath:   e.path,
			Line:       f.OpenedAtLine,
			Message:    fmt.Sprintf("unmatched conditional %q missing #endif", cond),
			Suggestion: "add a matching #endif directive",
		})
	}
}

func (e *stackEngine) structural(kind ErrorKind, d *Directive, msg, suggestion string) {
	sev := SeverityCritical
	if kind == ErrKindOrphanElse || kind == ErrKindOrphanElif {
		sev = SeverityError
	}
	e.errors = append(e.errors, ValidationError{
		Kind:       kind,
		Severity:   sev,
		FilePath:   d.FilePath,
		Line:       d.Line,
		Message:    msg,
		Directive:  d.Content,
		Suggestion: suggestion,
	})
}

// unionSymbols merges the referenced symbols of all frames, sorted.
func unionSymbols(frames []ContextFrame) []string {
	if len(frames) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	for _, f := range frames {
		for _, s := range f.Symbols {
			seen[s] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
