package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/criteria/internal/ir"
)

// CycleWarning describes a cycle in the schema graph.
//
// Inheritance cycles are errors (Level "error"): the metamodel cannot be
// built. Embedding cycles are warnings: an embeddable that transitively
// contains itself can only be instantiated through a null reference.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["A", "B", "A"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "error" or "warning"
}

// InheritanceCycles reports every cycle of the extends relation.
func InheritanceCycles(specs []ir.EntitySpec) []CycleWarning {
	graph := make(dependencyGraph)
	for _, s := range specs {
		graph[s.Name] = nil
		if s.Super != "" {
			graph[s.Name] = append(graph[s.Name], s.Super)
		}
	}
	return analyze(graph, "error", "inheritance cycle")
}

// EmbeddingCycles reports cycles among embeddables reached through
// single-valued attributes.
func EmbeddingCycles(specs []ir.EntitySpec) []CycleWarning {
	embeddable := make(map[string]bool)
	for _, s := range specs {
		if s.Kind == ir.KindEmbeddable {
			embeddable[s.Name] = true
		}
	}

	graph := make(dependencyGraph)
	for _, s := range specs {
		if !embeddable[s.Name] {
			continue
		}
		graph[s.Name] = []string{}
		for _, a := range s.Attributes {
			if a.Collection == ir.CollectionNone && embeddable[a.Type] {
				graph[s.Name] = append(graph[s.Name], a.Type)
			}
		}
	}
	return analyze(graph, "warning", "embedding cycle")
}

func analyze(graph dependencyGraph, level, label string) []CycleWarning {
	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		path := []string{scc[0], scc[0]}
		if len(scc) > 1 {
			path = reconstructCyclePath(scc, graph)
		}
		warnings = append(warnings, CycleWarning{
			Path:    path,
			Message: fmt.Sprintf("%s: %s", label, strings.Join(path, " → ")),
			Level:   level,
		})
	}
	// Map iteration order leaks into tarjanSCC; sort for stable output.
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Message, b.Message)
	})
	return warnings
}

// dependencyGraph maps a type name to the type names it depends on.
type dependencyGraph map[string][]string

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
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
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath follows edges inside the SCC from its smallest
// member until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
