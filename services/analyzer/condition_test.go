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
	"reflect"
	"testing"
)

func TestNormalizeGuard(t *testing.T) {
	if got := normalizeGuard(KindIfdef, "DEBUG"); got != "DEBUG" {
		t.Errorf("ifdef: expected DEBUG, got %q", got)
	}
	if got := normalizeGuard(KindIfndef, "DEBUG"); got != "!DEBUG" {
		t.Errorf("ifndef: expected !DEBUG, got %q", got)
	}
	if got := normalizeGuard(KindIfdef, ""); got != emptyCondition {
		t.Errorf("empty guard should yield the sentinel, got %q", got)
	}
}

func TestExtractSymbols(t *testing.T) {
	tests := []struct {
		condition string
		want      []string
	}{
		{"defined(WINDOWS) && defined(DEBUG)", []string{"DEBUG", "WINDOWS"}},
		{"LEVEL >= 2", []string{"LEVEL"}},
		{"A || B || A", []string{"A", "B"}},
		{"!FEATURE_X", []string{"FEATURE_X"}},
		{"0x1F + 2", nil},
		{"100", nil},
		{"true || false", nil},
		{"VERSION > 0x10 && sizeof(int) == 4", []string{"VERSION", "int"}},
		{"", nil},
		{emptyCondition, nil},
	}
	for _, tt := range tests {
		got := extractSymbols(tt.condition)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("extractSymbols(%q) = %v, want %v", tt.condition, got, tt.want)
		}
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"DEBUG", "_private", "x", "a1_b2", "__FILE__"}
	invalid := []string{"", "9lives", "with-dash", "a b", "#x"}

	for _, s := range valid {
		if !isValidIdentifier(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range invalid {
		if isValidIdentifier(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestIsReservedIdentifier(t *testing.T) {
	reserved := []string{"_Upper", "__anything", "has__inside"}
	fine := []string{"_lower", "NORMAL", "x_y_z"}

	for _, s := range reserved {
		if !isReservedIdentifier(s) {
			t.Errorf("%q should be reserved", s)
		}
	}
	for _, s := range fine {
		if isReservedIdentifier(s) {
			t.Errorf("%q should not be reserved", s)
		}
	}
}

func TestBalancedParens(t *testing.T) {
	if !balancedParens("defined(A) && (B || C)") {
		t.Error("balanced expression flagged as unbalanced")
	}
	if balancedParens("defined(A") || balancedParens("A)") || balancedParens(")(") {
		t.Error("unbalanced expression passed the check")
	}
}
