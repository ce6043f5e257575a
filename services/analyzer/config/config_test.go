// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ppscope.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8420" {
		t.Errorf("unexpected default addr %q", cfg.Server.Addr)
	}
	if !cfg.Analyzer.Recursive || !cfg.Analyzer.IncludeHeaders {
		t.Error("expected recursive header-inclusive scanning by default")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected default logging %+v", cfg.Log)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
analyzer:
  strict: true
  workers: 4
server:
  addr: ":9000"
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Analyzer.Strict || cfg.Analyzer.Workers != 4 {
		t.Errorf("analyzer section not applied: %+v", cfg.Analyzer)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("server addr not applied: %q", cfg.Server.Addr)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.MaxRequestFiles != 500 {
		t.Errorf("expected default max_request_files, got %d", cfg.Server.MaxRequestFiles)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log section not applied: %+v", cfg.Log)
	}
}

func TestLoad_Durations(t *testing.T) {
	path := writeConfig(t, `
server:
  max_analyze_duration: 45s
cache:
  enabled: true
  path: /tmp/ppscope-cache
  ttl: 24h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.MaxAnalyzeDuration.Std() != 45*time.Second {
		t.Errorf("duration not parsed: %v", cfg.Server.MaxAnalyzeDuration)
	}
	if cfg.Cache.TTL.Std() != 24*time.Hour {
		t.Errorf("ttl not parsed: %v", cfg.Cache.TTL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing named file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "analyzer: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "log:\n  level: loud\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"negative workers", "analyzer:\n  workers: -1\n"},
		{"cache without path", "cache:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
