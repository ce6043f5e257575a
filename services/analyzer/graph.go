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
	"encoding/json"
	"sort"
)

// DependencyGraph maps each symbol to the set of symbols it depends on
// through the conditions guarding its definitions (and through identifiers
// referenced in its macro body).
//
// Symbols that are referenced but never defined remain valid nodes; build
// flags supplied from outside the analyzed tree are the common case. The
// graph is derived, stateless data, recomputed per analysis.
//
// Not safe for concurrent modification; build first, query after.
type DependencyGraph struct {
	deps map[string]map[string]bool
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{deps: make(map[string]map[string]bool)}
}

// AddEdge records that symbol depends on dep. Self-edges are kept: a symbol
// guarded by itself is a legitimate (if odd) single-node cycle.
func (g *DependencyGraph) AddEdge(symbol, dep string) {
	if symbol == "" || dep == "" {
		return
	}
	if g.deps[symbol] == nil {
		g.deps[symbol] = make(map[string]bool)
	}
	g.deps[symbol][dep] = true
	if g.deps[dep] == nil {
		g.deps[dep] = make(map[string]bool)
	}
}

// Symbols returns every node in sorted order.
func (g *DependencyGraph) Symbols() []string {
	out := make([]string, 0, len(g.deps))
	for s := range g.deps {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Dependencies returns the sorted dependency set of a symbol.
func (g *DependencyGraph) Dependencies(symbol string) []string {
	set := g.deps[symbol]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Len returns the node count.
func (g *DependencyGraph) Len() int {
	return len(g.deps)
}

// Merge folds other's edges into g.
func (g *DependencyGraph) Merge(other *DependencyGraph) {
	if other == nil {
		return
	}
	for sym, set := range other.deps {
		if g.deps[sym] == nil {
			g.deps[sym] = make(map[string]bool)
		}
		for d := range set {
			g.AddEdge(sym, d)
		}
	}
}

// FindCycles enumerates the distinct dependency cycles.
//
// Uses Tarjan's strongly connected components algorithm with recursion-stack
// marking. Each SCC with more than one member is a cycle; a single-node SCC
// counts only when the node has a self-edge. Each cycle is reported once, as
// an ordered sequence rotated to start at its lexicographically smallest
// symbol, and cycles are sorted by that first symbol so output is stable.
func (g *DependencyGraph) FindCycles() [][]string {
	index := 0
	stack := make([]string, 0)
	onStack := make(map[string]bool)
	indices := make(map[string]int)
	lowlinks := make(map[string]int)
	var sccs [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Dependencies(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlinks[v] {
					lowlinks[v] = indices[w]
				}
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) > 1 || g.deps[v][v] {
				sccs = append(sccs, normalizeCycle(scc))
			}
		}
	}

	for _, v := range g.Symbols() {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}

	sort.Slice(sccs, func(i, j int) bool {
		return sccs[i][0] < sccs[j][0]
	})
	return sccs
}

// normalizeCycle reverses Tarjan's pop order back to traversal order and
// rotates the cycle so it starts at the smallest symbol.
func normalizeCycle(scc []string) []string {
	out := make([]string, len(scc))
	for i, s := range scc {
		out[len(scc)-1-i] = s
	}
	min := 0
	for i, s := range out {
		if s < out[min] {
			min = i
		}
	}
	rotated := make([]string, 0, len(out))
	rotated = append(rotated, out[min:]...)
	rotated = append(rotated, out[:min]...)
	return rotated
}

// MarshalJSON serializes the graph as symbol -> sorted dependency list.
func (g *DependencyGraph) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(g.deps))
	for sym := range g.deps {
		deps := g.Dependencies(sym)
		if deps == nil {
			deps = []string{}
		}
		out[sym] = deps
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the graph from the symbol -> dependency list form.
func (g *DependencyGraph) UnmarshalJSON(data []byte) error {
	var in map[string][]string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	g.deps = make(map[string]map[string]bool, len(in))
	for sym, deps := range in {
		if g.deps[sym] == nil {
			g.deps[sym] = make(map[string]bool)
		}
		for _, d := range deps {
			g.AddEdge(sym, d)
		}
	}
	return nil
}
