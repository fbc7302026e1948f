// Package analytics computes community partitions and centralities over a
// full in-memory materialization of the graph. The whole node and edge set
// is loaded at once, which bounds usable graph size; the engine is a batch
// job and never sits on a request path.
package analytics

import (
	"github.com/soundprediction/graphista/pkg/graph"
)

// Graph is the in-memory form the algorithms operate on. Nodes are dense
// indexes; ids maps back to database element ids for persistence. Parallel
// edges are collapsed and self-loops dropped at construction.
type Graph struct {
	ids   []string
	index map[string]int

	out []([]int)
	in  []([]int)
	und []([]int)
}

// FromSnapshot builds the analytics graph from a store snapshot.
func FromSnapshot(snapshot *graph.Snapshot) *Graph {
	g := &Graph{
		index: make(map[string]int, len(snapshot.Nodes)),
	}
	for _, node := range snapshot.Nodes {
		if _, ok := g.index[node.ID]; ok {
			continue
		}
		g.index[node.ID] = len(g.ids)
		g.ids = append(g.ids, node.ID)
	}

	n := len(g.ids)
	g.out = make([][]int, n)
	g.in = make([][]int, n)
	g.und = make([][]int, n)

	type pair struct{ u, v int }
	directed := make(map[pair]struct{})
	undirected := make(map[pair]struct{})

	for _, edge := range snapshot.Edges {
		u, okU := g.index[edge.SourceID]
		v, okV := g.index[edge.TargetID]
		if !okU || !okV || u == v {
			continue
		}
		if _, seen := directed[pair{u, v}]; !seen {
			directed[pair{u, v}] = struct{}{}
			g.out[u] = append(g.out[u], v)
			g.in[v] = append(g.in[v], u)
		}
		a, b := u, v
		if a > b {
			a, b = b, a
		}
		if _, seen := undirected[pair{a, b}]; !seen {
			undirected[pair{a, b}] = struct{}{}
			g.und[a] = append(g.und[a], b)
			g.und[b] = append(g.und[b], a)
		}
	}

	return g
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.ids)
}

// NodeID returns the database element id of node index i.
func (g *Graph) NodeID(i int) string {
	return g.ids[i]
}

// DirectedEdgeCount returns the number of distinct directed edges.
func (g *Graph) DirectedEdgeCount() int {
	total := 0
	for _, neighbors := range g.out {
		total += len(neighbors)
	}
	return total
}

// UndirectedEdgeCount returns the number of distinct undirected edges.
func (g *Graph) UndirectedEdgeCount() int {
	total := 0
	for _, neighbors := range g.und {
		total += len(neighbors)
	}
	return total / 2
}
