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
	"strings"
	"testing"
)

func TestValidate_DuplicateDefineSameContext(t *testing.T) {
	fr := run(t, "#ifdef A\n#define X 1\n#define X 2\n#endif\n")

	dup := errorsOfKind(fr, ErrKindDuplicateDefinition)
	if len(dup) != 1 {
		t.Fatalf("expected 1 duplicate warning, got %v", fr.Errors)
	}
	if dup[0].Line != 3 {
		t.Errorf("warning should sit on the redefinition line 3, got %d", dup[0].Line)
	}
	if !strings.Contains(dup[0].Suggestion, "line 2") {
		t.Errorf("suggestion should point at the first definition: %q", dup[0].Suggestion)
	}
}

func TestValidate_SameSymbolDifferentContexts(t *testing.T) {
	fr := run(t, "#ifdef A\n#define X 1\n#endif\n#ifdef B\n#define X 2\n#endif\n")

	if dup := errorsOfKind(fr, ErrKindDuplicateDefinition); len(dup) != 0 {
		t.Errorf("different contexts must not warn: %v", dup)
	}
}

func TestValidate_InvalidIdentifier(t *testing.T) {
	fr := run(t, "#define 9LIVES 1\n#ifdef 2FAST\n#endif\n")

	invalid := errorsOfKind(fr, ErrKindInvalidIdentifier)
	if len(invalid) != 2 {
		t.Fatalf("expected 2 InvalidIdentifier errors, got %v", fr.Errors)
	}
	for _, e := range invalid {
		if e.Severity != SeverityError {
			t.Errorf("invalid identifier is an error, got %s", e.Severity)
		}
	}
}

func TestValidate_UnbalancedParens(t *testing.T) {
	fr := run(t, "#if defined(A && defined(B)\n#endif\n")

	if len(errorsOfKind(fr, ErrKindMalformedDirective)) != 1 {
		t.Errorf("expected MalformedDirective for unbalanced parens: %v", fr.Errors)
	}
}

func TestValidate_UnknownDirectiveWarns(t *testing.T) {
	fr := run(t, "#pragmaa once\n")

	unknown := errorsOfKind(fr, ErrKindUnknownDirective)
	if len(unknown) != 1 || unknown[0].Severity != SeverityWarning {
		t.Errorf("expected one unknown-directive warning, got %v", fr.Errors)
	}
}

func TestValidate_UndefOfUnknownSymbol(t *testing.T) {
	fr := run(t, "#undef NEVER_DEFINED\n")

	if len(errorsOfKind(fr, ErrKindUndefUnknownSymbol)) != 1 {
		t.Errorf("expected undef warning: %v", fr.Errors)
	}
}

func TestValidate_ContradictoryContext(t *testing.T) {
	fr := run(t, "#ifdef A\n#ifndef A\n#define DEAD 1\n#endif\n#endif\n")

	contra := errorsOfKind(fr, ErrKindContradictoryContext)
	if len(contra) != 1 {
		t.Fatalf("expected contradiction warning, got %v", fr.Errors)
	}
	if contra[0].Line != 3 {
		t.Errorf("warning should sit on the definition line 3, got %d", contra[0].Line)
	}
}

// ============================================================================
// Strict Mode Tests
// ============================================================================

func TestValidate_StrictReservedNames(t *testing.T) {
	src := "#define _Reserved 1\n#define __both 1\n#define normal_name 1\n"

	relaxed := Analyze(src, "t.c", Options{})
	if n := len(errorsOfKind(relaxed, ErrKindReservedName)); n != 0 {
		t.Errorf("reserved-name checks are strict-mode only, got %d", n)
	}

	strict := Analyze(src, "t.c", Options{Strict: true})
	if n := len(errorsOfKind(strict, ErrKindReservedName)); n != 2 {
		t.Errorf("expected 2 reserved-name warnings in strict mode, got %d: %v",
			n, strict.Errors)
	}
}

func TestValidate_StrictConditionSmells(t *testing.T) {
	src := "#if A = 1\n#endif\n#if A & B\n#endif\n#if A >= 1 && B\n#endif\n"
	strict := Analyze(src, "t.c", Options{Strict: true})

	smells := errorsOfKind(strict, ErrKindSuspiciousCondition)
	if len(smells) != 2 {
		t.Errorf("expected assignment and bitwise warnings only, got %v", smells)
	}
}

func TestValidate_StrictIncludeGuard(t *testing.T) {
	good := "#ifndef UTIL_H\n#define UTIL_H\n#define HELPER 1\n#endif\n"
	fr := Analyze(good, "util.h", Options{Strict: true})
	if n := len(errorsOfKind(fr, ErrKindIncludeGuard)); n != 0 {
		t.Errorf("proper guard flagged: %v", fr.Errors)
	}

	mismatch := "#ifndef UTIL_H\n#define UTILS_H\n#define HELPER 1\n#endif\n"
	fr = Analyze(mismatch, "util.h", Options{Strict: true})
	if n := len(errorsOfKind(fr, ErrKindIncludeGuard)); n != 1 {
		t.Errorf("guard mismatch not flagged: %v", fr.Errors)
	}

	missing := "#define A 1\n#define B 2\n#define C 3\n"
	fr = Analyze(missing, "util.h", Options{Strict: true})
	if n := len(errorsOfKind(fr, ErrKindIncludeGuard)); n != 1 {
		t.Errorf("missing guard not flagged: %v", fr.Errors)
	}

	// Non-header files are exempt.
	fr = Analyze(missing, "util.c", Options{Strict: true})
	if n := len(errorsOfKind(fr, ErrKindIncludeGuard)); n != 0 {
		t.Errorf("source file flagged for include guard: %v", fr.Errors)
	}
}
