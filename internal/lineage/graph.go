// Package lineage provides directed graph operations over a fetched lineage
// subgraph: node lookups, upstream/downstream traversal, and counts. It is a
// read-side view; the subgraph itself comes from the metadata store.
package lineage

import (
	"fmt"
	"sort"

	"github.com/paleoml/paleo/pkg/metadata"
)

// NodeKind distinguishes the entity behind a graph node.
type NodeKind string

// Node kinds.
const (
	KindArtifact  NodeKind = "artifact"
	KindExecution NodeKind = "execution"
	KindContext   NodeKind = "context"
)

// ArtifactNodeID returns the graph node id for an artifact.
func ArtifactNodeID(id int64) string { return fmt.Sprintf("artifact:%d", id) }

// ExecutionNodeID returns the graph node id for an execution.
func ExecutionNodeID(id int64) string { return fmt.Sprintf("execution:%d", id) }

// ContextNodeID returns the graph node id for a context.
func ContextNodeID(id int64) string { return fmt.Sprintf("context:%d", id) }

// Node is one node of the lineage graph.
type Node struct {
	ID    string
	Kind  NodeKind
	Label string
}

// Graph is a directed graph over lineage nodes. Edges follow data flow:
// INPUT events point artifact->execution, OUTPUT events execution->artifact.
type Graph struct {
	nodes    map[string]*Node
	children map[string][]string
	parents  map[string][]string
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// FromSubgraph builds a traversal graph from a lineage subgraph. Context
// nodes are present but unconnected; attribution/association links are a
// rendering concern, not a data-flow edge.
func FromSubgraph(g *metadata.LineageGraph) *Graph {
	graph := NewGraph()

	for _, a := range g.Artifacts {
		graph.AddNode(&Node{ID: ArtifactNodeID(a.ID), Kind: KindArtifact, Label: a.URI})
	}
	for _, e := range g.Executions {
		graph.AddNode(&Node{ID: ExecutionNodeID(e.ID), Kind: KindExecution, Label: fmt.Sprintf("%s: %d", e.Type, e.ID)})
	}
	for _, c := range g.Contexts {
		graph.AddNode(&Node{ID: ContextNodeID(c.ID), Kind: KindContext, Label: c.Name})
	}

	for _, ev := range g.Events {
		a := ArtifactNodeID(ev.ArtifactID)
		e := ExecutionNodeID(ev.ExecutionID)
		switch ev.Type {
		case metadata.EventInput:
			_ = graph.AddEdge(a, e)
		case metadata.EventOutput:
			_ = graph.AddEdge(e, a)
		}
	}

	graph.sortNeighbors()
	return graph
}

// AddNode adds a node to the graph, replacing an existing node with the same id.
func (g *Graph) AddNode(n *Node) {
	if _, exists := g.nodes[n.ID]; !exists {
		g.children[n.ID] = []string{}
		g.parents[n.ID] = []string{}
	}
	g.nodes[n.ID] = n
}

// AddEdge adds a directed edge. Both endpoints must exist.
func (g *Graph) AddEdge(fromID, toID string) error {
	if _, exists := g.nodes[fromID]; !exists {
		return fmt.Errorf("node %q does not exist", fromID)
	}
	if _, exists := g.nodes[toID]; !exists {
		return fmt.Errorf("node %q does not exist", toID)
	}
	if !contains(g.children[fromID], toID) {
		g.children[fromID] = append(g.children[fromID], toID)
	}
	if !contains(g.parents[toID], fromID) {
		g.parents[toID] = append(g.parents[toID], fromID)
	}
	return nil
}

// GetNode returns a node by id.
func (g *Graph) GetNode(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Parents returns the direct upstream neighbors of a node.
func (g *Graph) Parents(id string) []string { return g.parents[id] }

// Children returns the direct downstream neighbors of a node.
func (g *Graph) Children(id string) []string { return g.children[id] }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, c := range g.children {
		count += len(c)
	}
	return count
}

// Upstream returns everything reachable against the flow direction from id,
// breadth-first. maxDepth limits traversal depth; 0 means unlimited.
func (g *Graph) Upstream(id string, maxDepth int) []string {
	return g.walk(id, maxDepth, g.Parents)
}

// Downstream returns everything reachable along the flow direction from id.
func (g *Graph) Downstream(id string, maxDepth int) []string {
	return g.walk(id, maxDepth, g.Children)
}

func (g *Graph) walk(start string, maxDepth int, next func(string) []string) []string {
	visited := map[string]bool{start: true}
	var result []string

	frontier := []string{start}
	for depth := 1; len(frontier) > 0; depth++ {
		if maxDepth > 0 && depth > maxDepth {
			break
		}
		var nextFrontier []string
		for _, id := range frontier {
			for _, n := range next(id) {
				if !visited[n] {
					visited[n] = true
					result = append(result, n)
					nextFrontier = append(nextFrontier, n)
				}
			}
		}
		frontier = nextFrontier
	}
	return result
}

func (g *Graph) sortNeighbors() {
	for id := range g.children {
		sort.Strings(g.children[id])
	}
	for id := range g.parents {
		sort.Strings(g.parents[id])
	}
}

func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
