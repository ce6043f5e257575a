// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scanner discovers C/C++ source files for analysis.
//
// Discovery is an external collaborator of the analyzer core: it deals only
// in paths, never in file content. Results are returned sorted so downstream
// analysis runs are reproducible.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source and header extensions recognized as C/C++ files.
var (
	SourceExtensions = map[string]bool{
		".c": true, ".cpp": true, ".cxx": true, ".cc": true, ".c++": true,
	}
	HeaderExtensions = map[string]bool{
		".h": true, ".hpp": true, ".hxx": true, ".h++": true, ".hh": true,
	}
)

// ErrPathNotFound indicates the scan root does not exist.
var ErrPathNotFound = errors.New("path does not exist")

// Options configures a scan.
type Options struct {
	// Recursive descends into subdirectories. Default: true for directories.
	Recursive bool

	// IncludeHeaders adds header extensions to the match set.
	IncludeHeaders bool

	// ExcludePatterns are glob patterns matched against both the base name
	// and the full slash path of every file and directory.
	ExcludePatterns []string
}

// Scanner finds C/C++ files under a file or directory root.
type Scanner struct {
	opts Options
}

// New creates a scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan returns the sorted absolute paths of matching files under path. A
// single-file path is accepted and returned as-is when it matches. Unreadable
// subdirectories are logged and skipped, not fatal.
func (s *Scanner) Scan(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	extensions := s.matchSet()

	if !info.IsDir() {
		if s.matches(path, extensions) && !s.excluded(path) {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, err
			}
			return []string{abs}, nil
		}
		return nil, nil
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != path {
				if s.excluded(p) {
					return fs.SkipDir
				}
				if !s.opts.Recursive {
					return fs.SkipDir
				}
			}
			return nil
		}
		if s.matches(p, extensions) && !s.excluded(p) {
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			files = append(files, abs)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %s: %w", path, walkErr)
	}

	sort.Strings(files)
	return files, nil
}

func (s *Scanner) matchSet() map[string]bool {
	set := make(map[string]bool, len(SourceExtensions)+len(HeaderExtensions))
	for ext := range SourceExtensions {
		set[ext] = true
	}
	if s.opts.IncludeHeaders {
		for ext := range HeaderExtensions {
			set[ext] = true
		}
	}
	return set
}

func (s *Scanner) matches(path string, extensions map[string]bool) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// excluded checks the path against the exclude patterns, matching both the
// base name and the full slash path so "build" and "src/gen/*" both work.
func (s *Scanner) excluded(path string) bool {
	if len(s.opts.ExcludePatterns) == 0 {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range s.opts.ExcludePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, slashed); matched {
			return true
		}
		if strings.Contains(slashed, "/"+strings.Trim(pattern, "/")+"/") {
			return true
		}
	}
	return false
}
