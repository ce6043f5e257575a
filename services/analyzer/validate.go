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
	"strings"
)

// validator runs the cross-directive pass over a finished per-file result.
// Structural and syntax errors raised inline by the lexer and the stack
// engine are already in the result; the validator adds the findings that
// need the whole file in view.
type validator struct {
	strict bool
}

// run appends the cross-pass findings to the file result's error list.
func (v *validator) run(fr *FileResult) {
	for i := range fr.Directives {
		v.checkDirective(fr, &fr.Directives[i])
	}
	v.checkDuplicateDefines(fr)
	v.checkUndefs(fr)
	v.checkContradictions(fr)
	if v.strict {
		v.checkReservedNames(fr)
		v.checkIncludeGuard(fr)
	}
}

func (v *validator) checkDirective(fr *FileResult, d *Directive) {
	switch d.Kind {
	case KindUnknown:
		fr.addError(ValidationError{
			Kind:      ErrKindUnknownDirective,
			Severity:  SeverityWarning,
			FilePath:  d.FilePath,
			Line:      d.Line,
			Message:   fmt.Sprintf("unknown preprocessor directive: %s", d.Content),
			Directive: d.Content,
		})

	case KindDefine, KindUndef, KindIfdef, KindIfndef:
		if d.Symbol != "" && !isValidIdentifier(d.Symbol) {
			fr.addError(ValidationError{
				Kind:       ErrKindInvalidIdentifier,
				Severity:   SeverityError,
				FilePath:   d.FilePath,
				Line:       d.Line,
				Message:    fmt.Sprintf("invalid symbol name %q", d.Symbol),
				Directive:  d.Content,
				Suggestion: "symbol names must start with a letter or underscore, followed by letters, digits, or underscores",
			})
		}

	case KindIf, KindElif:
		if d.Condition == emptyCondition {
			return
		}
		if !balancedParens(d.Condition) {
			fr.addError(ValidationError{
				Kind:       ErrKindMalformedDirective,
				Severity:   SeverityError,
				FilePath:   d.FilePath,
				Line:       d.Line,
				Message:    "unbalanced parentheses in condition expression",
				Directive:  d.Content,
				Suggestion: "check that every opening parenthesis has a matching closing one",
			})
		}
		if v.strict {
			v.checkConditionSmells(fr, d)
		}
	}
}

// checkDuplicateDefines warns on a repeated define of one symbol under an
// identical derived condition expression. The same symbol defined under
// different contexts (the #ifdef/#else pattern) is legitimate and not
// flagged.
func (v *validator) checkDuplicateDefines(fr *FileResult) {
	first := make(map[string]DefineRecord)
	for _, def := range fr.Defines {
		if def.Symbol == "" {
			continue
		}
		key := def.Symbol + "\x00" + def.Expression
		if prev, seen := first[key]; seen {
			fr.addError(ValidationError{
				Kind:       ErrKindDuplicateDefinition,
				Severity:   SeverityWarning,
				FilePath:   def.FilePath,
				Line:       def.Line,
				Message:    fmt.Sprintf("symbol %q redefined under the same condition", def.Symbol),
				Suggestion: fmt.Sprintf("first defined at line %d", prev.Line),
			})
		} else {
			first[key] = def
		}
	}
}

// checkUndefs warns on an #undef of a symbol never defined in the file.
// An undef never removes an already-emitted DefineRecord; definition history
// is cumulative, so this is only a smell, not an error.
func (v *validator) checkUndefs(fr *FileResult) {
	defined := make(map[string]bool)
	for _, def := range fr.Defines {
		defined[def.Symbol] = true
	}
	for _, d := range fr.Directives {
		if d.Kind != KindUndef || d.Symbol == "" {
			continue
		}
		if !defined[d.Symbol] {
			fr.addError(ValidationError{
				Kind:      ErrKindUndefUnknownSymbol,
				Severity:  SeverityWarning,
				FilePath:  d.FilePath,
				Line:      d.Line,
				Message:   fmt.Sprintf("undef of symbol %q never defined in this file", d.Symbol),
				Directive: d.Content,
			})
		}
	}
}

// checkContradictions flags a definition whose derived context contains both
// a condition and its textual negation, which usually means the guarded block
// can never be active.
func (v *validator) checkContradictions(fr *FileResult) {
	for _, def := range fr.Defines {
		texts := conditionTexts(def.Frames)
		if len(texts) < 2 {
			continue
		}
		positive := make(map[string]bool)
		for _, t := range texts {
			positive[t] = true
		}
		for _, t := range texts {
			neg, ok := strings.CutPrefix(t, "!")
			if !ok || !positive[neg] {
				continue
			}
			fr.addError(ValidationError{
				Kind:     ErrKindContradictoryContext,
				Severity: SeverityWarning,
				FilePath: def.FilePath,
				Line:     def.Line,
				Message:  fmt.Sprintf("potentially unreachable definition: context requires both %q and %q", neg, t),
			})
			break
		}
	}
}

func (v *validator) checkReservedNames(fr *FileResult) {
	for _, def := range fr.Defines {
		if def.Symbol == "" || !isReservedIdentifier(def.Symbol) {
			continue
		}
		fr.addError(ValidationError{
			Kind:       ErrKindReservedName,
			Severity:   SeverityWarning,
			FilePath:   def.FilePath,
			Line:       def.Line,
			Message:    fmt.Sprintf("symbol name %q may conflict with reserved identifiers", def.Symbol),
			Suggestion: "avoid leading underscore followed by an uppercase letter, and double underscores",
		})
	}
}

// checkConditionSmells reports strict-mode smells inside an #if/#elif
// condition: an assignment where a comparison was likely meant, and bitwise
// operators where logical ones were likely meant.
func (v *validator) checkConditionSmells(fr *FileResult, d *Directive) {
	cond := d.Condition
	warn := func(msg, suggestion string) {
		fr.addError(ValidationError{
			Kind:       ErrKindSuspiciousCondition,
			Severity:   SeverityWarning,
			FilePath:   d.FilePath,
			Line:       d.Line,
			Message:    msg,
			Directive:  d.Content,
			Suggestion: suggestion,
		})
	}

	bare := cond
	for _, op := range []string{"==", "!=", ">=", "<="} {
		bare = strings.ReplaceAll(bare, op, "")
	}
	if strings.Contains(bare, "=") {
		warn("possible assignment operator in condition",
			"use == for comparison or != for inequality")
	}
	if strings.Contains(strings.ReplaceAll(cond, "&&", ""), "&") {
		warn("bitwise AND (&) found in condition, did you mean logical AND (&&)?", "")
	}
	if strings.Contains(strings.ReplaceAll(cond, "||", ""), "|") {
		warn("bitwise OR (|) found in condition, did you mean logical OR (||)?", "")
	}
}

// headerExtensions are the file suffixes the include-guard check applies to.
var headerExtensions = []string{".h", ".hpp", ".hxx", ".h++", ".hh"}

// checkIncludeGuard verifies the ifndef/define/endif guard pattern in header
// files: the first two directives must guard and define the same symbol, and
// the file must end with a matching #endif.
func (v *validator) checkIncludeGuard(fr *FileResult) {
	lower := strings.ToLower(fr.FilePath)
	isHeader := false
	for _, ext := range headerExtensions {
		if strings.HasSuffix(lower, ext) {
			isHeader = true
			break
		}
	}
	if !isHeader || len(fr.Directives) < 3 {
		return
	}

	first, second := fr.Directives[0], fr.Directives[1]
	last := fr.Directives[len(fr.Directives)-1]

	if first.Kind == KindIfndef && second.Kind == KindDefine && last.Kind == KindEndif {
		if first.Symbol != second.Symbol {
			fr.addError(ValidationError{
				Kind:       ErrKindIncludeGuard,
				Severity:   SeverityWarning,
				FilePath:   fr.FilePath,
				Line:       second.Line,
				Message:    fmt.Sprintf("include guard mismatch: %s vs %s", first.Symbol, second.Symbol),
				Directive:  second.Content,
				Suggestion: "use the same symbol in the #ifndef and #define of the guard",
			})
		}
		return
	}

	fr.addError(ValidationError{
		Kind:       ErrKindIncludeGuard,
		Severity:   SeverityWarning,
		FilePath:   fr.FilePath,
		Line:       1,
		Message:    "header file missing a proper include guard",
		Suggestion: "open the file with #ifndef/#define and close it with #endif",
	})
}
