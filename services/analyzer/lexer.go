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

// lexOutput is the ordered product of lexing one file.
type lexOutput struct {
	Directives []Directive
	Errors     []ValidationError
	LineCount  int
}

// directiveKeywords maps directive keyword text to its kind. Any other
// keyword lexes as KindUnknown; the record is kept, not discarded.
var directiveKeywords = map[string]DirectiveKind{
	"define":  KindDefine,
	"undef":   KindUndef,
	"ifdef":   KindIfdef,
	"ifndef":  KindIfndef,
	"if":      KindIf,
	"elif":    KindElif,
	"else":    KindElse,
	"endif":   KindEndif,
	"include": KindInclude,
	"pragma":  KindPragma,
	"warning": KindWarning,
	"error":   KindError,
}

// lexSource turns raw source text into an ordered sequence of typed directive
// records. Lexing is fault tolerant: a malformed line produces a validation
// event and lexing continues, since inputs under analysis may be broken on
// purpose.
func lexSource(src, path string) *lexOutput {
	out := &lexOutput{LineCount: countLines(src)}

	stripped := stripComments(src)
	for _, ll := range logicalLines(stripped) {
		trimmed := strings.TrimSpace(ll.text)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		d, errs := lexDirective(trimmed, path, ll.line)
		out.Directives = append(out.Directives, d)
		out.Errors = append(out.Errors, errs...)
	}
	return out
}

// logicalLine is one backslash-joined line and the physical line it starts on.
type logicalLine struct {
	text string
	line int
}

// logicalLines splits text into lines, joining backslash continuations. The
// joined line keeps the line number of its first physical line.
func logicalLines(src string) []logicalLine {
	physical := strings.Split(src, "\n")
	var out []logicalLine

	for i := 0; i < len(physical); i++ {
		start := i + 1
		line := strings.TrimSuffix(physical[i], "\r")
		for strings.HasSuffix(line, "\\") && i+1 < len(physical) {
			i++
			next := strings.TrimSuffix(physical[i], "\r")
			line = strings.TrimSuffix(line, "\\") + " " + next
		}
		out = append(out, logicalLine{text: line, line: start})
	}
	return out
}

// stripComments removes line and block comments while preserving newlines so
// line numbers survive. Comment markers inside string or character literals
// are left alone. Block comments may span lines; each removed character other
// than a newline becomes a space.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	const (
		stateCode = iota
		stateLineComment
		stateBlockComment
		stateString
		stateChar
	)
	state := stateCode

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case stateCode:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				state = stateLineComment
				i++
				b.WriteString("  ")
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				state = stateBlockComment
				i++
				b.WriteString("  ")
			case c == '"':
				state = stateString
				b.WriteByte(c)
			case c == '\'':
				state = stateChar
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		case stateLineComment:
			if c == '\n' {
				state = stateCode
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = stateCode
				i++
				b.WriteString("  ")
			} else if c == '\n' {
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
		case stateString:
			if c == '\\' && i+1 < len(src) {
				b.WriteByte(c)
				i++
				b.WriteByte(src[i])
			} else {
				if c == '"' || c == '\n' {
					state = stateCode
				}
				b.WriteByte(c)
			}
		case stateChar:
			if c == '\\' && i+1 < len(src) {
				b.WriteByte(c)
				i++
				b.WriteByte(src[i])
			} else {
				if c == '\'' || c == '\n' {
					state = stateCode
				}
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// lexDirective classifies one trimmed directive line and extracts its parts.
// The record is always emitted, even when extraction raises errors.
func lexDirective(trimmed, path string, line int) (Directive, []ValidationError) {
	d := Directive{
		Kind:     KindUnknown,
		Content:  trimmed,
		FilePath: path,
		Line:     line,
	}
	var errs []ValidationError

	rest := strings.TrimSpace(trimmed[1:])
	keyword, rest := scanIdentifier(rest)
	rest = strings.TrimSpace(rest)

	kind, recognized := directiveKeywords[keyword]
	if !recognized {
		return d, nil
	}
	d.Kind = kind

	addErr := func(kind ErrorKind, sev Severity, msg, suggestion string) {
		errs = append(errs, ValidationError{
			Kind:       kind,
			Severity:   sev,
			FilePath:   path,
			Line:       line,
			Message:    msg,
			Directive:  trimmed,
			Suggestion: suggestion,
		})
	}

	switch kind {
	case KindDefine:
		name, body := scanSymbolToken(rest)
		d.Symbol = name
		d.Body = strings.TrimSpace(body)
		if name == "" {
			addErr(ErrKindMissingSymbolName, SeverityError,
				"define directive missing symbol name",
				"add a valid symbol name after #define")
		}

	case KindUndef:
		name, _ := scanSymbolToken(rest)
		d.Symbol = name
		if name == "" {
			addErr(ErrKindMissingSymbolName, SeverityError,
				"undef directive missing symbol name",
				"add a symbol name after #undef")
		}

	case KindIfdef, KindIfndef:
		name, _ := scanSymbolToken(rest)
		d.Symbol = name
		d.Condition = normalizeGuard(kind, name)
		if name == "" {
			addErr(ErrKindEmptyCondition, SeverityError,
				fmt.Sprintf("%s directive missing symbol name", kind),
				fmt.Sprintf("add a symbol name after #%s", kind))
		}

	case KindIf, KindElif:
		d.Condition = rest
		if rest == "" {
			d.Condition = emptyCondition
			addErr(ErrKindEmptyCondition, SeverityError,
				fmt.Sprintf("%s directive missing condition expression", kind),
				fmt.Sprintf("add a condition expression after #%s", kind))
		}

	case KindInclude:
		target, ok := scanIncludeTarget(rest)
		d.IncludePath = target
		if !ok {
			addErr(ErrKindMalformedDirective, SeverityError,
				"include directive missing file path",
				"add a file path in quotes or angle brackets after #include")
		}

	case KindElse, KindEndif, KindPragma, KindWarning, KindError:
		// Recorded verbatim. Trailing text is tolerated.
	}

	return d, errs
}

// scanSymbolToken reads the symbol operand of a define/undef/ifdef/ifndef.
// A well-formed operand is a C identifier; when the operand starts with
// something else (a digit, punctuation) the raw token is still captured so
// the validator can flag it as an invalid identifier instead of the record
// silently losing its name.
func scanSymbolToken(s string) (string, string) {
	name, rest := scanIdentifier(s)
	if name != "" {
		return name, rest
	}
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '(' {
		i++
	}
	return s[:i], s[i:]
}

// scanIdentifier reads a leading C identifier from s, tolerating leading
// whitespace. Returns the identifier (empty if s does not start with one)
// and the remainder.
func scanIdentifier(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) {
		c := s[i]
		isAlpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if i == 0 && !isAlpha {
			break
		}
		if !isAlpha && !isDigit {
			break
		}
		i++
	}
	return s[:i], s[i:]
}

// scanIncludeTarget extracts the path from `<path>` or `"path"`.
func scanIncludeTarget(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	var closer byte
	switch s[0] {
	case '<':
		closer = '>'
	case '"':
		closer = '"'
	default:
		return "", false
	}
	end := strings.IndexByte(s[1:], closer)
	if end < 0 {
		return "", false
	}
	return s[1 : 1+end], true
}

// countLines counts physical lines the way a line-by-line reader would.
func countLines(src string) int {
	if src == "" {
		return 0
	}
	n := strings.Count(src, "\n")
	if !strings.HasSuffix(src, "\n") {
		n++
	}
	return n
}
