// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer determines the conditional-compilation context of C/C++
// preprocessor directives.
//
// For every directive, and especially every #define, the analyzer tracks the
// conjunction of enclosing #ifdef/#ifndef/#if/#elif/#else conditions under
// which it is active. The analyzer is deliberately not a preprocessor: it
// never evaluates conditions, never expands macros, and never resolves
// includes. It tracks directive structure and symbolic condition text, and it
// keeps going on malformed input, reporting what it found as data.
package analyzer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DirectiveKind identifies the type of a preprocessor directive.
type DirectiveKind int

const (
	// KindUnknown is a directive with an unrecognized keyword.
	KindUnknown DirectiveKind = iota

	// KindDefine is a #define directive.
	KindDefine

	// KindUndef is a #undef directive.
	KindUndef

	// KindIfdef is a #ifdef directive.
	KindIfdef

	// KindIfndef is a #ifndef directive.
	KindIfndef

	// KindIf is a #if directive.
	KindIf

	// KindElif is a #elif directive.
	KindElif

	// KindElse is a #else directive.
	KindElse

	// KindEndif is a #endif directive.
	KindEndif

	// KindInclude is a #include directive.
	KindInclude

	// KindPragma is a #pragma directive.
	KindPragma

	// KindWarning is a #warning directive.
	KindWarning

	// KindError is a #error directive.
	KindError
)

// directiveKindNames maps DirectiveKind values to their string representations.
var directiveKindNames = map[DirectiveKind]string{
	KindUnknown: "unknown",
	KindDefine:  "define",
	KindUndef:   "undef",
	KindIfdef:   "ifdef",
	KindIfndef:  "ifndef",
	KindIf:      "if",
	KindElif:    "elif",
	KindElse:    "else",
	KindEndif:   "endif",
	KindInclude: "include",
	KindPragma:  "pragma",
	KindWarning: "warning",
	KindError:   "error",
}

// String returns the string representation of the DirectiveKind.
func (k DirectiveKind) String() string {
	if name, ok := directiveKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the kind as its string name.
func (k DirectiveKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a kind from its string name.
func (k *DirectiveKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for kind, n := range directiveKindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	*k = KindUnknown
	return nil
}

// IsConditional reports whether the kind opens a conditional frame.
func (k DirectiveKind) IsConditional() bool {
	return k == KindIfdef || k == KindIfndef || k == KindIf
}

// emptyCondition is the internal sentinel for a conditional directive with no
// condition text (bare #if, bare #ifdef). The sentinel keeps nesting depth
// consistent so later #endif matching stays correct, but it is excluded from
// derived AND-expressions shown to users.
const emptyCondition = "<empty>"

// Directive is a single preprocessor directive as found in source text.
//
// Immutable once created: the Context snapshot reflects the stack at the
// instant the directive was processed and is never recomputed.
type Directive struct {
	// Kind is the directive type.
	Kind DirectiveKind `json:"kind"`

	// Content is the full logical line, trimmed.
	Content string `json:"content"`

	// FilePath identifies the source file.
	FilePath string `json:"file_path"`

	// Line is the 1-based physical line the logical line started on.
	Line int `json:"line"`

	// Symbol is the symbol name for define/undef/ifdef/ifndef directives.
	Symbol string `json:"symbol,omitempty"`

	// Condition is the canonical condition text for conditional directives:
	// "SYM" for ifdef, "!SYM" for ifndef, the trimmed raw text for if/elif.
	Condition string `json:"condition,omitempty"`

	// Body is the macro body for define directives, including the parameter
	// list of function-like macros, kept as opaque text.
	Body string `json:"body,omitempty"`

	// IncludePath is the target of an include directive.
	IncludePath string `json:"include_path,omitempty"`

	// Context is the condition texts of the frames enclosing this directive,
	// outermost first, snapshotted at processing time.
	Context []string `json:"context,omitempty"`
}

// ContextFrame is one open conditional branch.
type ContextFrame struct {
	// Condition is the canonical condition text of the branch.
	Condition string `json:"condition"`

	// Negated is true for an #else-derived frame.
	Negated bool `json:"negated,omitempty"`

	// OpenedAtLine is where the branch opened or replaced its predecessor.
	OpenedAtLine int `json:"opened_at_line"`

	// Symbols are the symbol names referenced by the condition, sorted.
	Symbols []string `json:"symbols,omitempty"`
}

// sentinel reports whether the frame carries the empty-condition sentinel.
func (f ContextFrame) sentinel() bool {
	return f.Condition == emptyCondition
}

// clone returns an independent copy of the frame.
func (f ContextFrame) clone() ContextFrame {
	c := f
	if f.Symbols != nil {
		c.Symbols = append([]string(nil), f.Symbols...)
	}
	return c
}

// ContextStack is the ordered sequence of open conditional frames, outermost
// first. Depth is never negative: an #endif on an empty stack is an error,
// not a pop.
type ContextStack struct {
	frames []ContextFrame
}

// Depth returns the number of open frames.
func (s *ContextStack) Depth() int {
	return len(s.frames)
}

// Push opens a new frame.
func (s *ContextStack) Push(f ContextFrame) {
	s.frames = append(s.frames, f)
}

// Pop closes the innermost frame. Returns false on an empty stack.
func (s *ContextStack) Pop() (ContextFrame, bool) {
	if len(s.frames) == 0 {
		return ContextFrame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Top returns the innermost frame without removing it.
func (s *ContextStack) Top() (ContextFrame, bool) {
	if len(s.frames) == 0 {
		return ContextFrame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Snapshot returns an owned, by-value copy of the open frames. Later stack
// mutation never alters a snapshot.
func (s *ContextStack) Snapshot() []ContextFrame {
	if len(s.frames) == 0 {
		return nil
	}
	out := make([]ContextFrame, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.clone()
	}
	return out
}

// ConditionTexts returns the condition texts of the open frames, outermost
// first, excluding empty-condition sentinels.
func (s *ContextStack) ConditionTexts() []string {
	return conditionTexts(s.frames)
}

// Expression returns the AND-join of the open frames' condition texts, or ""
// when the stack is empty (unconditional).
func (s *ContextStack) Expression() string {
	return joinConditions(s.frames)
}

func conditionTexts(frames []ContextFrame) []string {
	var texts []string
	for _, f := range frames {
		if f.sentinel() {
			continue
		}
		texts = append(texts, f.Condition)
	}
	return texts
}

func joinConditions(frames []ContextFrame) string {
	return strings.Join(conditionTexts(frames), " && ")
}

// DefineRecord is a symbol definition together with the conditional context
// it was made under. Immutable after creation: the Frames snapshot and the
// derived Expression are pure functions of the stack at definition time.
type DefineRecord struct {
	// Symbol is the defined macro name.
	Symbol string `json:"symbol"`

	// Body is the macro body, opaque.
	Body string `json:"body,omitempty"`

	// FilePath identifies the source file.
	FilePath string `json:"file_path"`

	// Line is the 1-based line of the definition.
	Line int `json:"line"`

	// Frames is the owned snapshot of the context stack at definition time,
	// outermost first.
	Frames []ContextFrame `json:"frames,omitempty"`

	// Expression is the AND-join of the frame condition texts, outer to
	// inner, or "" for an unconditional definition.
	Expression string `json:"expression"`

	// References is the union of all frames' referenced symbols, sorted.
	References []string `json:"references,omitempty"`

	// Depth is the nesting depth at definition time.
	Depth int `json:"depth"`
}

// Severity classifies how serious a validation finding is.
type Severity int

const (
	// SeverityWarning marks stylistic or semantic concerns.
	SeverityWarning Severity = iota

	// SeverityError marks syntax that blocks correct interpretation.
	SeverityError

	// SeverityCritical marks stack-integrity violations.
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityWarning:  "warning",
	SeverityError:    "error",
	SeverityCritical: "critical",
}

// String returns the string representation of the Severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the severity as its string name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity from its string name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for sev, n := range severityNames {
		if n == name {
			*s = sev
			return nil
		}
	}
	*s = SeverityWarning
	return nil
}

// ErrorKind identifies the category of a validation finding.
type ErrorKind string

// Structural errors (stack integrity).
const (
	// ErrKindUnmatchedEndif is an #endif with no open conditional.
	ErrKindUnmatchedEndif ErrorKind = "unmatched_endif"

	// ErrKindMissingEndif is a conditional still open at end of file.
	ErrKindMissingEndif ErrorKind = "missing_endif"

	// ErrKindOrphanElse is an #else with no open conditional.
	ErrKindOrphanElse ErrorKind = "orphan_else"

	// ErrKindOrphanElif is an #elif with no open conditional.
	ErrKindOrphanElif ErrorKind = "orphan_elif"
)

// Syntax errors.
const (
	// ErrKindEmptyCondition is a conditional directive with no condition.
	ErrKindEmptyCondition ErrorKind = "empty_condition"

	// ErrKindMissingSymbolName is a define/undef with no symbol.
	ErrKindMissingSymbolName ErrorKind = "missing_symbol_name"

	// ErrKindMalformedDirective is a directive the lexer could not make
	// sense of (for example unbalanced parentheses in a condition).
	ErrKindMalformedDirective ErrorKind = "malformed_directive"
)

// Semantic warnings.
const (
	// ErrKindDuplicateDefinition is a repeated define of one symbol under an
	// identical derived condition expression.
	ErrKindDuplicateDefinition ErrorKind = "duplicate_definition"

	// ErrKindInvalidIdentifier is a symbol name that is not a valid
	// identifier (leading digit, or empty).
	ErrKindInvalidIdentifier ErrorKind = "invalid_identifier"

	// ErrKindReservedName is a strict-mode reserved identifier pattern.
	ErrKindReservedName ErrorKind = "reserved_name"

	// ErrKindUnknownDirective is an unrecognized directive keyword.
	ErrKindUnknownDirective ErrorKind = "unknown_directive"

	// ErrKindUndefUnknownSymbol is an #undef of a symbol never defined in
	// the file.
	ErrKindUndefUnknownSymbol ErrorKind = "undef_unknown_symbol"

	// ErrKindContradictoryContext is a derived context containing both a
	// symbol and its negation.
	ErrKindContradictoryContext ErrorKind = "contradictory_context"

	// ErrKindIncludeGuard is a strict-mode include-guard problem in a
	// header file.
	ErrKindIncludeGuard ErrorKind = "include_guard"

	// ErrKindSuspiciousCondition is a strict-mode smell inside a condition
	// (assignment instead of comparison, bitwise instead of logical).
	ErrKindSuspiciousCondition ErrorKind = "suspicious_condition"
)

// Graph warnings and file-level failures.
const (
	// ErrKindCircularDependency is a cycle in the symbol dependency graph.
	ErrKindCircularDependency ErrorKind = "circular_dependency"

	// ErrKindFileError is a failure to read or process a file. The analysis
	// run continues; the failure is data in the result.
	ErrKindFileError ErrorKind = "file_error"
)

// ValidationError is one finding produced during analysis. Immutable and
// append-only: the core never aborts a file because of a malformed directive.
type ValidationError struct {
	// Kind is the finding category.
	Kind ErrorKind `json:"kind"`

	// Severity is the finding severity.
	Severity Severity `json:"severity"`

	// FilePath identifies the source file.
	FilePath string `json:"file_path"`

	// Line is the 1-based line of the finding, 0 for file-level findings.
	Line int `json:"line"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Directive is the offending directive content, when applicable.
	Directive string `json:"directive,omitempty"`

	// Suggestion is an optional fix hint.
	Suggestion string `json:"suggestion,omitempty"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.FilePath, e.Line, e.Severity, e.Message)
}

// FileResult is the analysis result for a single file.
type FileResult struct {
	// FilePath identifies the analyzed file.
	FilePath string `json:"file_path"`

	// Directives are all directives found, in source order.
	Directives []Directive `json:"directives,omitempty"`

	// Defines are the definition records, in source order.
	Defines []DefineRecord `json:"defines,omitempty"`

	// Errors are all findings for this file, in detection order.
	Errors []ValidationError `json:"errors,omitempty"`

	// LineCount is the number of physical lines in the file.
	LineCount int `json:"line_count"`

	// DirectiveCount is len(Directives).
	DirectiveCount int `json:"directive_count"`

	// MaxDepth is the deepest conditional nesting observed.
	MaxDepth int `json:"max_depth"`

	// KindCounts maps directive kind names to occurrence counts.
	KindCounts map[string]int `json:"kind_counts,omitempty"`

	// ConditionUsage maps condition text to the number of conditional
	// directives that used it in this file.
	ConditionUsage map[string]int `json:"condition_usage,omitempty"`

	// Graph is the symbol dependency graph derived from this file.
	Graph *DependencyGraph `json:"graph,omitempty"`
}

// addError appends a finding to the file's ordered error list.
func (r *FileResult) addError(e ValidationError) {
	r.Errors = append(r.Errors, e)
}

// Result is the merged analysis result across files.
type Result struct {
	// Files maps file path to its per-file result.
	Files map[string]*FileResult `json:"files"`

	// TotalFiles is the number of files analyzed.
	TotalFiles int `json:"total_files"`

	// TotalDirectives is the directive count across files.
	TotalDirectives int `json:"total_directives"`

	// TotalDefines is the definition count across files.
	TotalDefines int `json:"total_defines"`

	// ConditionUsage maps condition text to usage count across files.
	ConditionUsage map[string]int `json:"condition_usage,omitempty"`

	// Graph is the union symbol dependency graph.
	Graph *DependencyGraph `json:"graph,omitempty"`

	// Cycles are the distinct dependency cycles, each an ordered sequence of
	// symbols starting at its lexicographically smallest member.
	Cycles [][]string `json:"cycles,omitempty"`

	// Errors are all findings across files, ordered by file path, then by
	// detection order within the file, with cycle warnings last.
	Errors []ValidationError `json:"errors,omitempty"`
}

// Paths returns the analyzed file paths in sorted order.
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// AllDefines returns every definition record across files, ordered by file
// path then source order.
func (r *Result) AllDefines() []DefineRecord {
	var out []DefineRecord
	for _, p := range r.Paths() {
		out = append(out, r.Files[p].Defines...)
	}
	return out
}

// DefinesByContext groups definition records by their derived condition
// expression. Unconditional definitions group under "global".
func (r *Result) DefinesByContext() map[string][]DefineRecord {
	grouped := make(map[string][]DefineRecord)
	for _, d := range r.AllDefines() {
		key := d.Expression
		if key == "" {
			key = "global"
		}
		grouped[key] = append(grouped[key], d)
	}
	return grouped
}
