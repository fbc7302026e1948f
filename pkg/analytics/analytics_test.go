package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/graphista/pkg/graph"
)

// twoCliques builds two 4-cliques bridged by a single edge. A reasonable
// community detection must separate them.
func twoCliques() *graph.Snapshot {
	snapshot := &graph.Snapshot{}
	for i := 0; i < 8; i++ {
		snapshot.Nodes = append(snapshot.Nodes, graph.SnapshotNode{
			ID:     fmt.Sprintf("n%d", i),
			Labels: []string{"__Entity__"},
		})
	}
	addClique := func(members []int) {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				snapshot.Edges = append(snapshot.Edges, graph.SnapshotEdge{
					SourceID: fmt.Sprintf("n%d", members[i]),
					TargetID: fmt.Sprintf("n%d", members[j]),
					Type:     "RELATED_TO",
				})
			}
		}
	}
	addClique([]int{0, 1, 2, 3})
	addClique([]int{4, 5, 6, 7})
	snapshot.Edges = append(snapshot.Edges, graph.SnapshotEdge{
		SourceID: "n3", TargetID: "n4", Type: "RELATED_TO",
	})
	return snapshot
}

func TestFromSnapshotDeduplicatesEdges(t *testing.T) {
	snapshot := &graph.Snapshot{
		Nodes: []graph.SnapshotNode{{ID: "a"}, {ID: "b"}},
		Edges: []graph.SnapshotEdge{
			{SourceID: "a", TargetID: "b", Type: "KNOWS"},
			{SourceID: "a", TargetID: "b", Type: "LIKES"},
			{SourceID: "a", TargetID: "a", Type: "SELF"},
		},
	}

	g := FromSnapshot(snapshot)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.DirectedEdgeCount())
	assert.Equal(t, 1, g.UndirectedEdgeCount())
}

func TestLouvainSeparatesTwoCliques(t *testing.T) {
	g := FromSnapshot(twoCliques())

	partition, modularity := Louvain(g)

	require.Len(t, partition, 8, "every node must be assigned")
	first := partition[0]
	second := partition[4]
	assert.NotEqual(t, first, second)
	for i := 0; i < 4; i++ {
		assert.Equal(t, first, partition[i])
	}
	for i := 4; i < 8; i++ {
		assert.Equal(t, second, partition[i])
	}

	assert.GreaterOrEqual(t, modularity, -1.0)
	assert.LessOrEqual(t, modularity, 1.0)
	assert.Greater(t, modularity, 0.3, "clique split should score well")
}

func TestLeidenSeparatesTwoCliques(t *testing.T) {
	g := FromSnapshot(twoCliques())

	partition, modularity := Leiden(g)

	require.Len(t, partition, 8)
	assert.NotEqual(t, partition[0], partition[4])
	for i := 0; i < 4; i++ {
		assert.Equal(t, partition[0], partition[i])
	}
	for i := 4; i < 8; i++ {
		assert.Equal(t, partition[4], partition[i])
	}
	assert.GreaterOrEqual(t, modularity, -1.0)
	assert.LessOrEqual(t, modularity, 1.0)
}

func TestLouvainEmptyGraph(t *testing.T) {
	g := FromSnapshot(&graph.Snapshot{})

	partition, modularity := Louvain(g)
	assert.Empty(t, partition)
	assert.Zero(t, modularity)
}

func TestModularityRange(t *testing.T) {
	g := FromSnapshot(twoCliques())

	// everything in one community
	single := make(map[int]int)
	for i := 0; i < 8; i++ {
		single[i] = 0
	}
	q := UndirectedModularity(g, single)
	assert.GreaterOrEqual(t, q, -1.0)
	assert.LessOrEqual(t, q, 1.0)

	qd := DirectedModularity(g, single)
	assert.GreaterOrEqual(t, qd, -1.0)
	assert.LessOrEqual(t, qd, 1.0)
}

func TestPageRankStarGraph(t *testing.T) {
	snapshot := &graph.Snapshot{
		Nodes: []graph.SnapshotNode{{ID: "hub"}, {ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []graph.SnapshotEdge{
			{SourceID: "a", TargetID: "hub", Type: "LINKS"},
			{SourceID: "b", TargetID: "hub", Type: "LINKS"},
			{SourceID: "c", TargetID: "hub", Type: "LINKS"},
		},
	}
	g := FromSnapshot(snapshot)

	scores := PageRank(g)
	require.Len(t, scores, 4)

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
	assert.Greater(t, scores[0], scores[1], "hub should outrank spokes")
}

func TestBetweennessPathGraph(t *testing.T) {
	snapshot := &graph.Snapshot{
		Nodes: []graph.SnapshotNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []graph.SnapshotEdge{
			{SourceID: "a", TargetID: "b", Type: "NEXT"},
			{SourceID: "b", TargetID: "c", Type: "NEXT"},
		},
	}
	g := FromSnapshot(snapshot)

	scores := Betweenness(g)
	assert.Zero(t, scores[0])
	assert.InDelta(t, 0.5, scores[1], 1e-9)
	assert.Zero(t, scores[2])
}

func TestClosenessPathGraph(t *testing.T) {
	snapshot := &graph.Snapshot{
		Nodes: []graph.SnapshotNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []graph.SnapshotEdge{
			{SourceID: "a", TargetID: "b", Type: "NEXT"},
			{SourceID: "b", TargetID: "c", Type: "NEXT"},
		},
	}
	g := FromSnapshot(snapshot)

	scores := Closeness(g)
	assert.Zero(t, scores[0], "nothing reaches the head")
	assert.InDelta(t, 0.5, scores[1], 1e-9)
	assert.InDelta(t, 2.0/3.0, scores[2], 1e-9)
}
