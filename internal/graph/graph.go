package graph

import (
	"fmt"
	"slices"
	"sync"
)

// DependencyGraph holds the eager dependencies between definition ids. It
// provides cycle detection, topological sorting, and dependency analysis.
// Iteration follows insertion order so results are deterministic.
type DependencyGraph struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*Node
	edges map[string][]string // adjacency list: id -> ids it depends on

	// Cache for performance
	sortedNodes      []*Node
	sortedNodesDirty bool
}

// Node represents a definition in the dependency graph
type Node struct {
	ID        string
	Kind      string
	Singleton bool

	// Defined is false for ids that are only known as dependencies.
	Defined bool

	// Graph metadata
	InDegree  int // number of dependents
	OutDegree int // number of dependencies
	Depth     int // depth in dependency tree

	// Dependency information
	Dependencies []string // ids this node depends on
	Dependents   []string // ids that depend on this node
}

// NodeInfo describes a node to add.
type NodeInfo struct {
	ID           string
	Kind         string
	Singleton    bool
	Dependencies []string
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:            make(map[string]*Node),
		edges:            make(map[string][]string),
		sortedNodesDirty: true,
	}
}

// AddNode adds or replaces a node and its outgoing edges. Unknown
// dependencies are added as undefined nodes. Cycles are not rejected here;
// use Cycles.
func (g *DependencyGraph) AddNode(info NodeInfo) error {
	if info.ID == "" {
		return fmt.Errorf("node id cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.ensure(info.ID)
	node.Kind = info.Kind
	node.Singleton = info.Singleton
	node.Defined = true

	deps := make([]string, 0, len(info.Dependencies))
	for _, dep := range info.Dependencies {
		if dep == "" || slices.Contains(deps, dep) {
			continue
		}
		deps = append(deps, dep)
		g.ensure(dep)
	}
	g.edges[info.ID] = deps

	g.updateDegrees()
	g.sortedNodesDirty = true
	return nil
}

func (g *DependencyGraph) ensure(id string) *Node {
	if node, ok := g.nodes[id]; ok {
		return node
	}
	node := &Node{ID: id}
	g.nodes[id] = node
	g.order = append(g.order, id)
	return node
}

// updateDegrees recalculates in/out degrees for all nodes
func (g *DependencyGraph) updateDegrees() {
	for _, node := range g.nodes {
		node.InDegree = 0
		node.OutDegree = 0
		node.Dependencies = nil
		node.Dependents = nil
	}

	for _, from := range g.order {
		deps := g.edges[from]
		fromNode := g.nodes[from]
		fromNode.OutDegree = len(deps)
		fromNode.Dependencies = slices.Clone(deps)

		for _, to := range deps {
			if toNode, exists := g.nodes[to]; exists {
				toNode.InDegree++
				toNode.Dependents = append(toNode.Dependents, from)
			}
		}
	}
}

// TopologicalSort returns nodes in dependency order (dependencies first)
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.sortedNodesDirty && g.sortedNodes != nil {
		return slices.Clone(g.sortedNodes), nil
	}

	// Kahn's algorithm over remaining dependency counts
	remaining := make(map[string]int, len(g.nodes))
	queue := make([]string, 0)
	for _, id := range g.order {
		remaining[id] = g.nodes[id].OutDegree
		if remaining[id] == 0 {
			queue = append(queue, id)
		}
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.nodes[current])

		for _, dependent := range g.nodes[current].Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("circular dependency detected: graph contains %d nodes but only %d could be sorted",
			len(g.nodes), len(result))
	}

	g.sortedNodes = result
	g.sortedNodesDirty = false
	return slices.Clone(result), nil
}

// Cycles returns every cycle reachable by depth-first search. Each cycle
// starts and ends with the same id, e.g. [a b a]. A cycle is reported once,
// rotated to start at its earliest inserted id.
func (g *DependencyGraph) Cycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.nodes))
	rank := make(map[string]int, len(g.order))
	for i, id := range g.order {
		rank[id] = i
	}

	var (
		cycles [][]string
		seen   = make(map[string]bool)
		path   []string
	)

	var visit func(id string)
	visit = func(id string) {
		state[id] = visiting
		path = append(path, id)

		for _, dep := range g.edges[id] {
			switch state[dep] {
			case unvisited:
				visit(dep)
			case visiting:
				start := slices.Index(path, dep)
				cycle := canonical(path[start:], rank)
				if key := fmt.Sprint(cycle); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}

		path = path[:len(path)-1]
		state[id] = done
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}

// canonical rotates a cycle to start at its lowest ranked id and closes it.
func canonical(cycle []string, rank map[string]int) []string {
	lowest := 0
	for i, id := range cycle {
		if rank[id] < rank[cycle[lowest]] {
			lowest = i
		}
	}
	out := make([]string, 0, len(cycle)+1)
	out = append(out, cycle[lowest:]...)
	out = append(out, cycle[:lowest]...)
	return append(out, out[0])
}

// GetDependents returns the ids that depend on the given id
func (g *DependencyGraph) GetDependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[id]; exists {
		return slices.Clone(node.Dependents)
	}
	return nil
}

// GetTransitiveDependencies returns all dependencies (direct and indirect)
func (g *DependencyGraph) GetTransitiveDependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{id: true}
	result := make([]string, 0)

	var collect func(current string)
	collect = func(current string) {
		for _, dep := range g.edges[current] {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				collect(dep)
			}
		}
	}

	collect(id)
	return result
}

// GetRoots returns all nodes nothing depends on (in-degree = 0)
func (g *DependencyGraph) GetRoots() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	roots := make([]*Node, 0)
	for _, id := range g.order {
		if node := g.nodes[id]; node.InDegree == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

// calculateDepths assigns depth levels to nodes based on their dependencies.
// Leaves have depth 0. Nodes unreachable from a leaf keep depth -1.
func (g *DependencyGraph) calculateDepths() {
	for _, node := range g.nodes {
		node.Depth = -1
	}

	queue := make([]*Node, 0)
	for _, id := range g.order {
		if node := g.nodes[id]; len(node.Dependencies) == 0 {
			node.Depth = 0
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, id := range current.Dependents {
			dep := g.nodes[id]
			if newDepth := current.Depth + 1; dep.Depth < newDepth && newDepth <= len(g.nodes) {
				dep.Depth = newDepth
				queue = append(queue, dep)
			}
		}
	}
}
