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

import "sort"

// conditionKeywords are identifiers that never count as referenced symbols
// when scanning a condition expression.
var conditionKeywords = map[string]bool{
	"defined": true,
	"true":    true,
	"false":   true,
	"sizeof":  true,
}

// normalizeGuard produces the canonical condition text for a symbol guard:
// "SYM" for #ifdef, "!SYM" for #ifndef. An empty symbol yields the internal
// sentinel so the frame still participates in stack bookkeeping.
func normalizeGuard(kind DirectiveKind, symbol string) string {
	if symbol == "" {
		return emptyCondition
	}
	if kind == KindIfndef {
		return "!" + symbol
	}
	return symbol
}

// extractSymbols scans a condition expression for referenced symbol names,
// sorted and deduplicated.
//
// Any defined(IDENT) occurrence yields IDENT. Any other bare identifier that
// is not a known keyword or part of a numeric literal is also treated as a
// referenced symbol. This over-approximates for arithmetic and relational
// expressions ("LEVEL >= 2" contributes LEVEL), which is intentional: the
// analyzer never evaluates conditions, it only reports what they mention.
func extractSymbols(condition string) []string {
	if condition == "" || condition == emptyCondition {
		return nil
	}

	seen := make(map[string]bool)
	for i := 0; i < len(condition); {
		c := condition[i]
		switch {
		case c >= '0' && c <= '9':
			// Consume the whole numeric literal, including hex digits and
			// suffixes, so "0x1F" never yields "x1F".
			i++
			for i < len(condition) && isIdentByte(condition[i]) {
				i++
			}
		case isIdentStartByte(c):
			start := i
			i++
			for i < len(condition) && isIdentByte(condition[i]) {
				i++
			}
			ident := condition[start:i]
			if !conditionKeywords[ident] {
				seen[ident] = true
			}
		default:
			i++
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

// isValidIdentifier reports whether s is a well-formed C identifier.
func isValidIdentifier(s string) bool {
	if s == "" || !isIdentStartByte(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

// isReservedIdentifier reports whether s matches a pattern the C and C++
// standards reserve for the implementation: a leading underscore followed by
// an uppercase letter, or a double underscore anywhere.
func isReservedIdentifier(s string) bool {
	if len(s) >= 2 && s[0] == '_' && s[1] >= 'A' && s[1] <= 'Z' {
		return true
	}
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '_' && s[i+1] == '_' {
			return true
		}
	}
	return false
}

// balancedParens reports whether parentheses in expr are balanced.
func balancedParens(expr string) bool {
	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func isIdentStartByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStartByte(c) || (c >= '0' && c <= '9')
}
