package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/graphista/pkg/types"
)

// SnapshotNode is one node of a full-graph snapshot, identified by the
// database element id analytics later writes back to.
type SnapshotNode struct {
	ID     string
	Labels []string
}

// SnapshotEdge is one directed edge between two snapshot nodes.
type SnapshotEdge struct {
	SourceID string
	TargetID string
	Type     string
}

// Snapshot is the whole graph materialized for analytics. The entire node
// and edge set is held in memory, which bounds graph size; analytics is a
// batch job, never a per-request path.
type Snapshot struct {
	Nodes []SnapshotNode
	Edges []SnapshotEdge
}

// Snapshot reads every node and directed edge of the graph.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	rows, err := session.Run(ctx, snapshotQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot graph: %w", err)
	}

	snapshot := &Snapshot{}
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		source, _ := row["source"].(string)
		if source == "" {
			continue
		}
		if _, ok := seen[source]; !ok {
			seen[source] = struct{}{}
			snapshot.Nodes = append(snapshot.Nodes, SnapshotNode{
				ID:     source,
				Labels: stringSlice(row["labels"]),
			})
		}

		target, _ := row["target"].(string)
		relType, _ := row["rel_type"].(string)
		if target == "" || relType == "" {
			continue
		}
		snapshot.Edges = append(snapshot.Edges, SnapshotEdge{
			SourceID: source,
			TargetID: target,
			Type:     relType,
		})
	}
	return snapshot, nil
}

// NodeUpdate carries the analytics properties to merge onto one node. Nil
// fields are left untouched in the database.
type NodeUpdate struct {
	CommunityLeiden  *int
	CommunityLouvain *int
	PageRank         *float64
	Betweenness      *float64
	Closeness        *float64
}

// UpdateNodeProperties merges the set fields of update onto the node with
// the given element id. A fully empty update is a no-op.
func (s *Store) UpdateNodeProperties(ctx context.Context, nodeID string, update NodeUpdate) error {
	clauses := make([]string, 0, 5)
	params := map[string]interface{}{"node_id": nodeID}

	if update.CommunityLeiden != nil {
		clauses = append(clauses, "n.community_leiden = $community_leiden")
		params["community_leiden"] = *update.CommunityLeiden
	}
	if update.CommunityLouvain != nil {
		clauses = append(clauses, "n.community_louvain = $community_louvain")
		params["community_louvain"] = *update.CommunityLouvain
	}
	if update.PageRank != nil {
		clauses = append(clauses, "n.pagerank = $pagerank")
		params["pagerank"] = *update.PageRank
	}
	if update.Betweenness != nil {
		clauses = append(clauses, "n.betweenness = $betweenness")
		params["betweenness"] = *update.Betweenness
	}
	if update.Closeness != nil {
		clauses = append(clauses, "n.closeness = $closeness")
		params["closeness"] = *update.Closeness
	}

	if len(clauses) == 0 {
		return nil
	}

	query := "MATCH (n) WHERE elementId(n) = $node_id\nSET " + strings.Join(clauses, ",\n    ")

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, query, params); err != nil {
		return fmt.Errorf("failed to update node properties: %w", err)
	}
	return nil
}

// UpdateModularity merges the graph-wide modularity metric singleton for the
// given community namespace.
func (s *Store) UpdateModularity(ctx context.Context, score float64, communityType types.CommunityType) error {
	if !communityType.Valid() {
		return ErrInvalidCommunityType
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, updateModularityQuery, map[string]interface{}{
		"name":       communityType.MetricName(),
		"modularity": score,
	}); err != nil {
		return fmt.Errorf("failed to update %s modularity: %w", communityType, err)
	}
	return nil
}
