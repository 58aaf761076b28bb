package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format
func (v *Visualizer) WriteDOT(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	// Write nodes with labels
	nodeIDs := make(map[string]string, len(v.graph.order))
	for i, id := range v.graph.order {
		node := v.graph.nodes[id]
		nodeIDs[id] = fmt.Sprintf("n%d", i)
		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			nodeIDs[id], formatNodeLabel(node), nodeColor(node))
	}

	// Write edges
	for _, from := range v.graph.order {
		for _, to := range v.graph.edges[from] {
			fmt.Fprintf(&b, "  %s -> %s;\n", nodeIDs[from], nodeIDs[to])
		}
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a text representation of the graph grouped by depth
func (v *Visualizer) WriteText(w io.Writer) error {
	v.graph.mu.Lock()
	v.graph.calculateDepths()
	v.graph.mu.Unlock()

	cycles := v.graph.Cycles()

	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	// Group nodes by depth
	depthGroups := make(map[int][]*Node)
	maxDepth := 0
	for _, id := range v.graph.order {
		node := v.graph.nodes[id]
		depthGroups[node.Depth] = append(depthGroups[node.Depth], node)
		maxDepth = max(maxDepth, node.Depth)
	}

	for depth := 0; depth <= maxDepth; depth++ {
		if nodes, exists := depthGroups[depth]; exists {
			fmt.Fprintf(&b, "Level %d:\n", depth)
			b.WriteString("--------\n")
			for _, node := range nodes {
				writeNodeDetails(&b, node, "  ")
			}
			b.WriteString("\n")
		}
	}

	if nodes, exists := depthGroups[-1]; exists {
		b.WriteString("Nodes in Cycles:\n")
		b.WriteString("----------------\n")
		for _, node := range nodes {
			writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	// Statistics
	edges := 0
	for _, deps := range v.graph.edges {
		edges += len(deps)
	}
	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(&b, "  Total nodes: %d\n", len(v.graph.nodes))
	fmt.Fprintf(&b, "  Total edges: %d\n", edges)
	if len(cycles) == 0 {
		b.WriteString("  Cycles: None (graph is acyclic)\n")
	} else {
		for _, cycle := range cycles {
			fmt.Fprintf(&b, "  Cycle: %s\n", strings.Join(cycle, " -> "))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatNodeLabel creates a label for a node
func formatNodeLabel(node *Node) string {
	id := strings.ReplaceAll(node.ID, `"`, `\"`)
	if node.Kind == "" {
		return id
	}
	return fmt.Sprintf("%s\\n%s", id, node.Kind)
}

// nodeColor determines the color for a node based on its properties
func nodeColor(node *Node) string {
	switch {
	case !node.Defined:
		return "lightgray"
	case node.Singleton:
		return "lightblue"
	default:
		return "lightyellow"
	}
}

// writeNodeDetails writes detailed information about a node
func writeNodeDetails(b *strings.Builder, node *Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, node.ID)
	if node.Kind != "" {
		fmt.Fprintf(b, "%s  Kind: %s\n", indent, node.Kind)
	}
	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, strings.Join(node.Dependencies, ", "))
	}
	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, strings.Join(node.Dependents, ", "))
	}
}
