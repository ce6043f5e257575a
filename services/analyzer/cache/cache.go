// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides an embedded BadgerDB cache for per-file analysis
// results.
//
// Entries are keyed by a digest of the file contents plus the analysis
// options, so a cache hit is valid regardless of file path, mtime, or the
// order files are analyzed in. Editing a file, or toggling strict mode,
// changes the key and naturally misses.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache: closed")

// keyPrefix namespaces result entries so future entry types can share the DB.
const keyPrefix = "result:"

// Config holds configuration for the result cache.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability. Cached results
	// are always recomputable, so the default is false.
	SyncWrites bool

	// TTL is the entry lifetime. Zero means entries never expire.
	TTL time.Duration

	// Logger receives BadgerDB's internal log output. If nil, BadgerDB
	// logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns defaults for an on-disk cache at the given path.
func DefaultConfig(path string) Config {
	return Config{
		Path: path,
		TTL:  7 * 24 * time.Hour,
	}
}

// InMemoryConfig returns configuration for testing.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Cache is a content-addressed store of per-file analysis results.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates and opens a result cache with the given configuration.
//
// Description:
//
//	Opens a BadgerDB database at the configured path, or in memory if
//	InMemory is true. Creates the directory if it doesn't exist.
//
// Inputs:
//
//	cfg - Cache configuration. Path is required unless InMemory is true.
//
// Outputs:
//
//	*Cache - The opened cache. Caller must call Close() when done.
//	error - Non-nil if path is invalid or the database cannot be opened.
//
// Thread Safety: The returned *Cache is safe for concurrent use.
func Open(cfg Config) (*Cache, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	return &Cache{db: db, ttl: cfg.TTL}, nil
}

// OpenInMemory is a convenience function for opening an in-memory cache.
func OpenInMemory() (*Cache, error) {
	return Open(InMemoryConfig())
}

// Key derives the cache key for a file's contents under the given options.
// Two files with identical contents and options share one entry.
func Key(source string, opts analyzer.Options) string {
	h := sha256.New()
	h.Write([]byte(source))
	if opts.Strict {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached file result.
//
// Description:
//
//	Looks up the result stored under key. A miss is not an error: the
//	second return value reports whether the entry was found.
//
// Inputs:
//
//	key - Content digest from Key().
//
// Outputs:
//
//	*analyzer.FileResult - The cached result, nil on miss.
//	bool - True on hit.
//	error - Non-nil on storage or decode failure.
func (c *Cache) Get(key string) (*analyzer.FileResult, bool, error) {
	if c.db.IsClosed() {
		return nil, false, ErrClosed
	}

	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var result analyzer.FileResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &result, true, nil
}

// Put stores a file result under key, honoring the configured TTL.
func (c *Cache) Put(key string, result *analyzer.FileResult) error {
	if c.db.IsClosed() {
		return ErrClosed
	}
	if result == nil {
		return errors.New("cache: nil result")
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), raw)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Analyze returns the cached result for source, computing and storing it on
// a miss. Lookup failures degrade to a plain analysis rather than failing
// the caller.
func (c *Cache) Analyze(source, path string, opts analyzer.Options, logger *slog.Logger) *analyzer.FileResult {
	key := Key(source, opts)

	cached, hit, err := c.Get(key)
	if err != nil && logger != nil {
		logger.Warn("cache lookup failed", "file", path, "error", err)
	}
	if hit {
		Rehome(cached, path)
		return cached
	}

	result := analyzer.Analyze(source, path, opts)
	if err := c.Put(key, result); err != nil && logger != nil {
		logger.Warn("cache store failed", "file", path, "error", err)
	}
	return result
}

// Drop removes the entry under key. Missing entries are not an error.
func (c *Cache) Drop(key string) error {
	if c.db.IsClosed() {
		return ErrClosed
	}
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Len counts the stored result entries.
func (c *Cache) Len() (int, error) {
	if c.db.IsClosed() {
		return 0, ErrClosed
	}

	count := 0
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(keyPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Rehome updates the file path recorded in a cached result and its nested
// records. Entries are stored under a content digest, so a hit for identical
// content under a different path must report the caller's file.
func Rehome(r *analyzer.FileResult, path string) {
	r.FilePath = path
	for i := range r.Directives {
		r.Directives[i].FilePath = path
	}
	for i := range r.Defines {
		r.Defines[i].FilePath = path
	}
	for i := range r.Errors {
		r.Errors[i].FilePath = path
	}
}
