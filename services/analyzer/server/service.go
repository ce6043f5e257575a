// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server provides the HTTP service for preprocessor conditional
// analysis.
//
// The service exposes endpoints for:
//   - Analyzing submitted source files
//   - Rendering reports in the supported formats
//   - Health checks and Prometheus metrics
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/ppscope/services/analyzer"
	"github.com/AleutianAI/ppscope/services/analyzer/cache"
)

// ServiceVersion is the analyzer service version.
const ServiceVersion = "0.1.0"

// ErrTooManyFiles is returned when a request exceeds the file limit.
var ErrTooManyFiles = errors.New("server: too many files in request")

// ServiceConfig configures the analyzer service.
type ServiceConfig struct {
	// MaxRequestFiles is the maximum number of files per analyze request.
	// Default: 500
	MaxRequestFiles int

	// MaxAnalyzeDuration bounds a single analyze request.
	// Default: 30s
	MaxAnalyzeDuration time.Duration

	// MaxStoredResults caps the in-memory result store backing
	// GET /v1/result/:id. Oldest results are evicted first.
	// Default: 100
	MaxStoredResults int

	// Workers bounds analysis concurrency per request. Zero uses the
	// runtime default.
	Workers int
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxRequestFiles:    500,
		MaxAnalyzeDuration: 30 * time.Second,
		MaxStoredResults:   100,
	}
}

// Service runs analyses on behalf of HTTP handlers.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Multiple goroutines can call
//	any combination of methods simultaneously.
type Service struct {
	config ServiceConfig
	cache  *cache.Cache
	logger *slog.Logger

	mu      sync.RWMutex
	results map[string]*analyzer.Result
	order   []string
}

// NewService creates an analyzer service.
func NewService(cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.MaxRequestFiles <= 0 {
		cfg.MaxRequestFiles = 500
	}
	if cfg.MaxAnalyzeDuration <= 0 {
		cfg.MaxAnalyzeDuration = 30 * time.Second
	}
	if cfg.MaxStoredResults <= 0 {
		cfg.MaxStoredResults = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config:  cfg,
		logger:  logger,
		results: make(map[string]*analyzer.Result),
	}
}

// WithCache sets the result cache for method chaining.
func (s *Service) WithCache(c *cache.Cache) *Service {
	s.cache = c
	return s
}

// Analyze runs the full pipeline over the submitted sources.
//
// Description:
//
//	Analyzes each source concurrently and merges the results. When a
//	cache is configured, per-file results are served from it by content
//	digest. Per-file failures surface as findings in the merged result,
//	never as a request failure.
//
// Inputs:
//
//	ctx - Request context. Cancellation stops unstarted files.
//	sources - Map of file path to file contents. Must be non-empty.
//	opts - Analysis options for every file.
//
// Outputs:
//
//	*analyzer.Result - The merged result.
//	error - ErrTooManyFiles, analyzer.ErrNoFiles, or a merge failure.
func (s *Service) Analyze(ctx context.Context, sources map[string]string, opts analyzer.Options) (*analyzer.Result, error) {
	if len(sources) > s.config.MaxRequestFiles {
		return nil, ErrTooManyFiles
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.MaxAnalyzeDuration)
	defer cancel()

	cfg := analyzer.RunConfig{Workers: s.config.Workers, Options: opts}

	if s.cache == nil {
		return analyzer.AnalyzeSources(ctx, sources, cfg)
	}

	// Serve hits from the cache, analyze the rest in one bounded run.
	results := make([]*analyzer.FileResult, 0, len(sources))
	misses := make(map[string]string)
	for path, src := range sources {
		if cached, hit, err := s.cache.Get(cache.Key(src, opts)); err == nil && hit {
			cache.Rehome(cached, path)
			results = append(results, cached)
			continue
		}
		misses[path] = src
	}

	if len(misses) > 0 {
		partial, err := analyzer.AnalyzeSources(ctx, misses, cfg)
		if err != nil {
			return nil, err
		}
		for path, fr := range partial.Files {
			results = append(results, fr)
			if err := s.cache.Put(cache.Key(misses[path], opts), fr); err != nil {
				s.logger.Warn("cache store failed", "file", path, "error", err)
			}
		}
	}

	return analyzer.Merge(results)
}

// StoreResult retains a result under the run ID for later retrieval,
// evicting the oldest stored result once the cap is reached.
func (s *Service) StoreResult(id string, result *analyzer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[id]; !exists {
		s.order = append(s.order, id)
	}
	s.results[id] = result

	for len(s.order) > s.config.MaxStoredResults {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.results, oldest)
	}
}

// Result returns the stored result for a run ID.
func (s *Service) Result(id string) (*analyzer.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	return result, ok
}
