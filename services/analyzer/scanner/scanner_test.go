// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	sort.Strings(out)
	return out
}

func TestScan_SourcesOnly(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"main.cpp":  "",
		"util.c":    "",
		"header.h":  "",
		"README.md": "",
	})

	files, err := New(Options{Recursive: true}).Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := baseNames(files)
	want := []string{"main.cpp", "util.c"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestScan_IncludeHeaders(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"main.cpp": "",
		"header.h": "",
		"impl.hpp": "",
	})

	files, err := New(Options{Recursive: true, IncludeHeaders: true}).Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("expected 3 files, got %v", baseNames(files))
	}
}

func TestScan_Recursive(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"top.c":             "",
		"sub/nested.cpp":    "",
		"sub/deep/lowest.c": "",
	})

	all, err := New(Options{Recursive: true}).Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("recursive scan: expected 3, got %v", baseNames(all))
	}

	flat, err := New(Options{Recursive: false}).Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 1 || filepath.Base(flat[0]) != "top.c" {
		t.Errorf("flat scan: expected only top.c, got %v", baseNames(flat))
	}
}

func TestScan_ExcludePatterns(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"keep.c":         "",
		"skip_me.c":      "",
		"build/gen.c":    "",
		"src/main.cpp":   "",
		"vendor/third.c": "",
	})

	files, err := New(Options{
		Recursive:       true,
		ExcludePatterns: []string{"skip_*.c", "build", "vendor"},
	}).Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := baseNames(files)
	if len(got) != 2 || got[0] != "keep.c" || got[1] != "main.cpp" {
		t.Errorf("expected [keep.c main.cpp], got %v", got)
	}
}

func TestScan_SingleFile(t *testing.T) {
	dir := makeTree(t, map[string]string{"only.cpp": ""})
	path := filepath.Join(dir, "only.cpp")

	files, err := New(Options{}).Scan(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected the single file, got %v", files)
	}
	if !filepath.IsAbs(files[0]) {
		t.Errorf("paths must be absolute, got %q", files[0])
	}
}

func TestScan_MissingPath(t *testing.T) {
	_, err := New(Options{}).Scan("/nonexistent/nowhere")
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}

func TestScan_SortedOutput(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"z.c": "", "a.c": "", "m.c": "",
	})
	files, err := New(Options{Recursive: true}).Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !sort.StringsAreSorted(files) {
		t.Errorf("scan output must be sorted: %v", files)
	}
}
