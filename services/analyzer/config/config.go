// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config provides configuration loading for the analyzer CLI and
// service.
//
// Thread Safety:
//
//	A loaded Config is read-only; safe for concurrent use.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxYAMLFileSize is the maximum allowed config file size (1MB).
const MaxYAMLFileSize = 1024 * 1024

// ErrConfigTooLarge is returned for config files over MaxYAMLFileSize.
var ErrConfigTooLarge = errors.New("config: file too large")

// Duration wraps time.Duration so YAML can carry values like "30s" or "24h".
type Duration time.Duration

// UnmarshalYAML parses a duration string such as "30s" or "24h".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("config: invalid duration at line %d", value.Line)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in its compact string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the top-level configuration.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// AnalyzerConfig controls analysis behavior.
type AnalyzerConfig struct {
	// Strict enables the additional strict-mode validations.
	Strict bool `yaml:"strict"`

	// Workers bounds concurrent file analyses. Zero uses the runtime
	// default.
	Workers int `yaml:"workers"`

	// Recursive scans directories recursively.
	Recursive bool `yaml:"recursive"`

	// IncludeHeaders scans header files in addition to sources.
	IncludeHeaders bool `yaml:"include_headers"`

	// ExcludePatterns are glob patterns skipped during scanning.
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`

	// MaxRequestFiles is the per-request file limit.
	MaxRequestFiles int `yaml:"max_request_files"`

	// MaxAnalyzeDuration bounds a single analyze request.
	MaxAnalyzeDuration Duration `yaml:"max_analyze_duration"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	// Enabled turns the cache on.
	Enabled bool `yaml:"enabled"`

	// Path is the BadgerDB directory.
	Path string `yaml:"path"`

	// TTL is the entry lifetime. Zero means entries never expire.
	TTL Duration `yaml:"ttl"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Analyzer: AnalyzerConfig{
			Recursive:      true,
			IncludeHeaders: true,
			ExcludePatterns: []string{
				".git", "build", "node_modules",
			},
		},
		Server: ServerConfig{
			Addr:               ":8420",
			MaxRequestFiles:    500,
			MaxAnalyzeDuration: Duration(30 * time.Second),
		},
		Cache: CacheConfig{
			TTL: Duration(7 * 24 * time.Hour),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
//
// Description:
//
//	Missing file is not an error when path is empty: the defaults are
//	returned. A named file must exist, parse, and stay under the size
//	limit.
//
// Inputs:
//
//	path - Config file path, or empty for defaults.
//
// Outputs:
//
//	Config - The effective configuration.
//	error - Non-nil on read, size, or parse failure.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if info.Size() > MaxYAMLFileSize {
		return cfg, ErrConfigTooLarge
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, cfg.validate()
}

// validate rejects values the rest of the system cannot honor.
func (c *Config) validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Analyzer.Workers < 0 {
		return errors.New("config: workers must not be negative")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("config: cache.path is required when cache is enabled")
	}
	return nil
}
