package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/graphista/pkg/graph"
	"github.com/soundprediction/graphista/pkg/types"
)

// Store is the persistence surface the engine needs.
type Store interface {
	Snapshot(ctx context.Context) (*graph.Snapshot, error)
	UpdateNodeProperties(ctx context.Context, nodeID string, update graph.NodeUpdate) error
	UpdateModularity(ctx context.Context, score float64, communityType types.CommunityType) error
}

// Result reports what one analytics run computed and persisted.
type Result struct {
	Nodes             int
	Edges             int
	LouvainModularity *float64
	LeidenModularity  *float64
	NodesUpdated      int
	AlgorithmErrors   []error
}

// Engine recomputes community partitions and centralities for the whole
// graph and writes them back. Every run is a full recompute; there is no
// incremental path.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// NewEngine creates an analytics engine over the given store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Run snapshots the graph, runs Louvain, Leiden and the three centralities,
// and persists per-node property merges plus the two modularity metrics.
// Algorithms are isolated from one another: one failing never blocks the
// rest, and whatever succeeded is still persisted. Only snapshot failure is
// fatal.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot graph for analytics: %w", err)
	}

	g := FromSnapshot(snapshot)
	result := &Result{
		Nodes: g.NodeCount(),
		Edges: g.DirectedEdgeCount(),
	}

	var (
		louvainPartition map[int]int
		leidenPartition  map[int]int
		pagerank         map[int]float64
		betweenness      map[int]float64
		closeness        map[int]float64
	)

	if err := e.runAlgorithm("louvain", func() {
		partition, modularity := Louvain(g)
		louvainPartition = partition
		result.LouvainModularity = &modularity
	}); err != nil {
		result.AlgorithmErrors = append(result.AlgorithmErrors, err)
	}

	if err := e.runAlgorithm("leiden", func() {
		partition, modularity := Leiden(g)
		leidenPartition = partition
		result.LeidenModularity = &modularity
	}); err != nil {
		result.AlgorithmErrors = append(result.AlgorithmErrors, err)
	}

	if err := e.runAlgorithm("centralities", func() {
		pagerank = PageRank(g)
		betweenness = Betweenness(g)
		closeness = Closeness(g)
	}); err != nil {
		result.AlgorithmErrors = append(result.AlgorithmErrors, err)
	}

	for i := 0; i < g.NodeCount(); i++ {
		update := graph.NodeUpdate{}
		if louvainPartition != nil {
			update.CommunityLouvain = intPointer(louvainPartition, i)
		}
		if leidenPartition != nil {
			update.CommunityLeiden = intPointer(leidenPartition, i)
		}
		if pagerank != nil {
			update.PageRank = floatPointer(pagerank, i)
			update.Betweenness = floatPointer(betweenness, i)
			update.Closeness = floatPointer(closeness, i)
		}

		if err := e.store.UpdateNodeProperties(ctx, g.NodeID(i), update); err != nil {
			e.logger.Warn("failed to persist analytics properties", "node_id", g.NodeID(i), "error", err)
			continue
		}
		result.NodesUpdated++
	}

	if result.LouvainModularity != nil {
		if err := e.store.UpdateModularity(ctx, *result.LouvainModularity, types.CommunityLouvain); err != nil {
			e.logger.Warn("failed to persist louvain modularity", "error", err)
		}
	}
	if result.LeidenModularity != nil {
		if err := e.store.UpdateModularity(ctx, *result.LeidenModularity, types.CommunityLeiden); err != nil {
			e.logger.Warn("failed to persist leiden modularity", "error", err)
		}
	}

	e.logger.Info("analytics run complete",
		"nodes", result.Nodes, "edges", result.Edges,
		"updated", result.NodesUpdated, "algorithm_errors", len(result.AlgorithmErrors))
	return result, nil
}

// runAlgorithm converts a panicking algorithm into an error so one bad
// computation cannot take down the run.
func (e *Engine) runAlgorithm(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s failed: %v", name, r)
			e.logger.Warn("analytics algorithm failed", "algorithm", name, "error", r)
		}
	}()
	fn()
	return nil
}

// intPointer returns the partition value for node i, or the -1 sentinel when
// the node is missing from the partition.
func intPointer(partition map[int]int, i int) *int {
	value := -1
	if v, ok := partition[i]; ok {
		value = v
	}
	return &value
}

// floatPointer returns the score for node i, or the 0.0 sentinel when the
// node is missing.
func floatPointer(scores map[int]float64, i int) *float64 {
	value := 0.0
	if v, ok := scores[i]; ok {
		value = v
	}
	return &value
}
