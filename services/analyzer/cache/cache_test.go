// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

const guardedSource = `#ifdef FEATURE_X
#define BUFFER_SIZE 1024
#endif
`

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// TestKey verifies keys depend on content and options but not path.
func TestKey(t *testing.T) {
	base := Key(guardedSource, analyzer.Options{})

	assert.Equal(t, base, Key(guardedSource, analyzer.Options{}),
		"identical content must produce identical keys")
	assert.NotEqual(t, base, Key(guardedSource+"\n#endif\n", analyzer.Options{}),
		"different content must produce different keys")
	assert.NotEqual(t, base, Key(guardedSource, analyzer.Options{Strict: true}),
		"strict mode must produce a different key")
}

// TestPutGet verifies a stored result round-trips.
func TestPutGet(t *testing.T) {
	c := openTestCache(t)

	result := analyzer.Analyze(guardedSource, "src/a.c", analyzer.Options{})
	key := Key(guardedSource, analyzer.Options{})
	require.NoError(t, c.Put(key, result))

	restored, hit, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, result.DirectiveCount, restored.DirectiveCount)
	assert.Equal(t, result.MaxDepth, restored.MaxDepth)
	require.Len(t, restored.Defines, 1)
	assert.Equal(t, "BUFFER_SIZE", restored.Defines[0].Symbol)
	assert.Equal(t, "FEATURE_X", restored.Defines[0].Expression)
}

// TestGetMiss verifies a miss is not an error.
func TestGetMiss(t *testing.T) {
	c := openTestCache(t)

	result, hit, err := c.Get(Key("never stored", analyzer.Options{}))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, result)
}

// TestAnalyze_HitRewritesPaths verifies identical content under a new path
// reports the new path throughout the result.
func TestAnalyze_HitRewritesPaths(t *testing.T) {
	c := openTestCache(t)

	first := c.Analyze(guardedSource, "src/a.c", analyzer.Options{}, nil)
	require.Equal(t, "src/a.c", first.FilePath)

	second := c.Analyze(guardedSource, "src/b.c", analyzer.Options{}, nil)
	assert.Equal(t, "src/b.c", second.FilePath)
	for _, d := range second.Directives {
		assert.Equal(t, "src/b.c", d.FilePath)
	}
	for _, d := range second.Defines {
		assert.Equal(t, "src/b.c", d.FilePath)
	}

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "identical content should share one entry")
}

// TestAnalyze_StrictKeyedSeparately verifies strict and non-strict results
// do not collide.
func TestAnalyze_StrictKeyedSeparately(t *testing.T) {
	c := openTestCache(t)

	src := "#define _RESERVED 1\n"
	plain := c.Analyze(src, "r.c", analyzer.Options{}, nil)
	strict := c.Analyze(src, "r.c", analyzer.Options{Strict: true}, nil)

	assert.NotEqual(t, len(plain.Errors), len(strict.Errors),
		"strict mode should add the reserved-name finding")

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// TestDrop verifies entry removal and that dropping a missing key is a no-op.
func TestDrop(t *testing.T) {
	c := openTestCache(t)

	key := Key(guardedSource, analyzer.Options{})
	require.NoError(t, c.Put(key, analyzer.Analyze(guardedSource, "a.c", analyzer.Options{})))
	require.NoError(t, c.Drop(key))

	_, hit, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Drop("absent"))
}

// TestClosedCache verifies operations after Close return ErrClosed.
func TestClosedCache(t *testing.T) {
	c, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, _, err = c.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Put("k", &analyzer.FileResult{}), ErrClosed)
	assert.ErrorIs(t, c.Drop("k"), ErrClosed)
	_, err = c.Len()
	assert.ErrorIs(t, err, ErrClosed)
}

// TestOpen_RequiresPath verifies persistent mode needs a path.
func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
