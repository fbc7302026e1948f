package graph

import (
	"context"
	"fmt"

	"github.com/soundprediction/graphista/pkg/types"
)

// bookkeepingKeys are analytics properties stripped from subgraph payloads
// before they reach a prompt.
var bookkeepingKeys = map[string]struct{}{
	"community_louvain": {},
	"community_leiden":  {},
	"pagerank":          {},
	"id":                {},
	"betweenness":       {},
	"closeness":         {},
}

// AdjacentChunks returns the previous, current and next chunk around the
// given one, following NEXT in both directions. When useElementID is set the
// lookup key is the database element id carried in chunk.ElementID. Any
// lookup failure degrades to (nil, chunk, nil).
func (s *Store) AdjacentChunks(ctx context.Context, chunk *types.Chunk, useElementID bool) (*types.Chunk, *types.Chunk, *types.Chunk) {
	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	var (
		rows []map[string]interface{}
		err  error
	)
	if useElementID {
		rows, err = session.Run(ctx, adjacentByElementIDQuery, map[string]interface{}{
			"element_id": chunk.ElementID,
		})
	} else {
		rows, err = session.Run(ctx, adjacentByIdentityQuery, map[string]interface{}{
			"chunk_id": chunk.ChunkID,
			"filename": chunk.Filename,
		})
	}
	if err != nil || len(rows) == 0 {
		s.logger.Warn("unable to retrieve adjacent chunks", "chunk_id", chunk.ChunkID, "error", err)
		return nil, chunk, nil
	}

	row := rows[0]
	prev := chunkFromNode(row["previous_chunk"])
	next := chunkFromNode(row["next_chunk"])
	if current := chunkFromNode(row["current"]); current != nil {
		chunk = current
	}
	return prev, chunk, next
}

// MentionedEntities follows MENTIONS edges from a chunk and returns the
// mentioned entity payloads. Only single-hop traversal is supported; any
// hops value above 1 returns ErrUnsupportedHops.
func (s *Store) MentionedEntities(ctx context.Context, chunk *types.Chunk, hops int) ([]map[string]interface{}, error) {
	if hops > 1 {
		return nil, ErrUnsupportedHops
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	rows, err := session.Run(ctx, mentionedEntitiesQuery, map[string]interface{}{
		"chunk_id": chunk.ChunkID,
		"filename": chunk.Filename,
	})
	if err != nil {
		s.logger.Warn("no mentioned entities retrieved", "chunk_id", chunk.ChunkID, "error", err)
		return nil, nil
	}
	if len(rows) == 0 {
		return nil, nil
	}

	raw, _ := rows[0]["mentioned_nodes"].([]interface{})
	nodes := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if node, ok := item.(map[string]interface{}); ok {
			nodes = append(nodes, node)
		}
	}

	s.logger.Info("retrieved mentioned entities", "count", len(nodes), "chunk_id", chunk.ChunkID)
	return nodes, nil
}

// SubgraphByCommunity returns the edges strictly between non-Chunk nodes
// whose community label (under the given namespace) is one of ids.
// Bookkeeping properties are stripped from both endpoint payloads.
func (s *Store) SubgraphByCommunity(ctx context.Context, ids []int, communityType types.CommunityType) ([]types.SubgraphEdge, error) {
	if !communityType.Valid() {
		return nil, ErrInvalidCommunityType
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(communitySubgraphQuery, communityType.Property())
	rows, err := session.Run(ctx, query, map[string]interface{}{
		"community_values": ids,
	})
	if err != nil {
		s.logger.Warn("error while fetching subgraph", "error", err)
		return nil, nil
	}

	subgraph := make([]types.SubgraphEdge, 0, len(rows))
	for _, row := range rows {
		node1, ok1 := row["n"].(map[string]interface{})
		node2, ok2 := row["m"].(map[string]interface{})
		rel, ok3 := row["r"].(map[string]interface{})
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		subgraph = append(subgraph, types.SubgraphEdge{
			Node1:        stripBookkeeping(node1),
			Relationship: stripInternal(rel),
			Node2:        stripBookkeeping(node2),
		})
	}
	return subgraph, nil
}

// Communities groups the graph's nodes by their community label under the
// given namespace and returns one Community per group, with member entity
// ids and names, relationship types between members, and member chunks.
func (s *Store) Communities(ctx context.Context, communityType types.CommunityType) ([]*types.Community, error) {
	if !communityType.Valid() {
		return nil, ErrInvalidCommunityType
	}

	session := s.driver.Session(ctx)
	defer session.Close(ctx)

	property := communityType.Property()
	byID := make(map[int]*types.Community)
	order := make([]int, 0)

	get := func(id int) *types.Community {
		if c, ok := byID[id]; ok {
			return c
		}
		c := &types.Community{Type: communityType, ID: id}
		byID[id] = c
		order = append(order, id)
		return c
	}

	entityRows, err := session.Run(ctx, fmt.Sprintf(communityEntitiesQuery, property), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to group community entities: %w", err)
	}
	for _, row := range entityRows {
		id, ok := asInt(row["community_id"])
		if !ok {
			continue
		}
		c := get(id)
		c.EntityIDs = stringSlice(row["entity_ids"])
		c.EntityNames = stringSlice(row["entity_names"])
		c.RelationshipTypes = stringSlice(row["relationship_types"])
	}

	chunkRows, err := session.Run(ctx, fmt.Sprintf(communityChunksQuery, property), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to group community chunks: %w", err)
	}
	for _, row := range chunkRows {
		id, ok := asInt(row["community_id"])
		if !ok {
			continue
		}
		c := get(id)
		raw, _ := row["chunks"].([]interface{})
		for _, item := range raw {
			if chunk := chunkFromNode(item); chunk != nil {
				c.Chunks = append(c.Chunks, chunk)
			}
		}
	}

	communities := make([]*types.Community, 0, len(order))
	for _, id := range order {
		c := byID[id]
		c.Size = len(c.EntityIDs) + len(c.Chunks)
		communities = append(communities, c)
	}
	return communities, nil
}

func stripBookkeeping(node map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(node))
	for k, v := range node {
		if _, drop := bookkeepingKeys[k]; drop {
			continue
		}
		if k == "__element_id" || k == "__labels" || k == "embedding" {
			continue
		}
		out[k] = v
	}
	return out
}

func stripInternal(rel map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(rel))
	for k, v := range rel {
		if k == "__element_id" {
			continue
		}
		out[k] = v
	}
	return out
}

// chunkFromNode converts a normalized node payload into a Chunk. Returns nil
// for non-map values (absent OPTIONAL MATCH results).
func chunkFromNode(value interface{}) *types.Chunk {
	node, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}

	chunk := &types.Chunk{}
	if v, ok := asInt(node["chunk_id"]); ok {
		chunk.ChunkID = v
	}
	if v, ok := node["filename"].(string); ok {
		chunk.Filename = v
	}
	if v, ok := asInt(node["document_version"]); ok {
		chunk.Version = v
	}
	if v, ok := node["text"].(string); ok {
		chunk.Text = v
	}
	if v, ok := node["__element_id"].(string); ok {
		chunk.ElementID = v
	}
	return chunk
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func stringSlice(v interface{}) []string {
	raw, _ := v.([]interface{})
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if str, ok := item.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	return out
}
