package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is the dependency closure of a consumer: packages keyed by their
// reference string, with edges to the packages they require.
type Graph struct {
	nodes          map[string]InstalledPackage
	executionOrder []string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]InstalledPackage),
	}
}

// AddPackage adds a package to the graph.
// It returns an error if the same reference was already added.
func (g *Graph) AddPackage(p InstalledPackage) error {
	key := p.Reference().String()
	if _, exists := g.nodes[key]; exists {
		return zerr.With(ErrPackageAlreadyExists, "reference", key)
	}
	g.nodes[key] = p
	return nil
}

// Has reports whether a reference is part of the graph.
func (g *Graph) Has(ref Reference) bool {
	_, ok := g.nodes[ref.String()]
	return ok
}

// Len returns the number of packages in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Validate checks for missing requirements and cycles using a depth-first
// topological sort. Dependencies are ordered before their dependents and
// ties are broken by reference so that Walk is deterministic.
func (g *Graph) Validate() error {
	g.executionOrder = make([]string, 0, len(g.nodes))
	visited := make(map[string]int) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(u string) error
	visit = func(u string) error {
		visited[u] = 1
		path = append(path, u)

		node, exists := g.nodes[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u)
		}

		for _, req := range sortedRefs(node.Info.Requires) {
			switch visited[req] {
			case 1:
				return g.buildCycleError(path, req)
			case 0:
				if err := visit(req); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, name := range keys {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedRefs(refs []Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	slices.Sort(out)
	return out
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []string, dep string) error {
	startIdx := slices.Index(path, dep)
	cycle := append(slices.Clone(path[startIdx:]), dep)
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(cycle, " -> "))
}

// Walk yields packages with dependencies first.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[InstalledPackage] {
	return func(yield func(InstalledPackage) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.nodes[name]) {
				return
			}
		}
	}
}

// Packages collects Walk into a slice.
func (g *Graph) Packages() []InstalledPackage {
	return slices.Collect(g.Walk())
}
