package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/graphista/pkg/graph"
	"github.com/soundprediction/graphista/pkg/types"
)

type fakeAnalyticsStore struct {
	snapshot    *graph.Snapshot
	snapshotErr error
	updateErr   error

	updates      map[string]graph.NodeUpdate
	modularities map[types.CommunityType]float64
}

func newFakeAnalyticsStore(snapshot *graph.Snapshot) *fakeAnalyticsStore {
	return &fakeAnalyticsStore{
		snapshot:     snapshot,
		updates:      make(map[string]graph.NodeUpdate),
		modularities: make(map[types.CommunityType]float64),
	}
}

func (f *fakeAnalyticsStore) Snapshot(context.Context) (*graph.Snapshot, error) {
	return f.snapshot, f.snapshotErr
}

func (f *fakeAnalyticsStore) UpdateNodeProperties(_ context.Context, nodeID string, update graph.NodeUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates[nodeID] = update
	return nil
}

func (f *fakeAnalyticsStore) UpdateModularity(_ context.Context, score float64, communityType types.CommunityType) error {
	f.modularities[communityType] = score
	return nil
}

func TestEngineRunPersistsPartitionsAndCentralities(t *testing.T) {
	store := newFakeAnalyticsStore(twoCliques())
	engine := NewEngine(store, nil)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, result.Nodes)
	assert.Equal(t, 8, result.NodesUpdated)
	assert.Empty(t, result.AlgorithmErrors)
	require.NotNil(t, result.LouvainModularity)
	require.NotNil(t, result.LeidenModularity)

	require.Len(t, store.updates, 8)
	for nodeID, update := range store.updates {
		require.NotNil(t, update.CommunityLouvain, nodeID)
		require.NotNil(t, update.CommunityLeiden, nodeID)
		require.NotNil(t, update.PageRank, nodeID)
		require.NotNil(t, update.Betweenness, nodeID)
		require.NotNil(t, update.Closeness, nodeID)
		assert.GreaterOrEqual(t, *update.CommunityLouvain, 0)
	}

	assert.Contains(t, store.modularities, types.CommunityLouvain)
	assert.Contains(t, store.modularities, types.CommunityLeiden)
	assert.Equal(t, *result.LouvainModularity, store.modularities[types.CommunityLouvain])
}

func TestEngineRunSnapshotFailureIsFatal(t *testing.T) {
	store := newFakeAnalyticsStore(nil)
	store.snapshotErr = errors.New("connection refused")
	engine := NewEngine(store, nil)

	_, err := engine.Run(context.Background())
	assert.Error(t, err)
}

func TestEngineRunPersistenceFailureDoesNotAbort(t *testing.T) {
	store := newFakeAnalyticsStore(twoCliques())
	store.updateErr = errors.New("write timeout")
	engine := NewEngine(store, nil)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.NodesUpdated)
	assert.Contains(t, store.modularities, types.CommunityLouvain,
		"modularity metrics still written when node updates fail")
}

func TestEngineRunEmptyGraph(t *testing.T) {
	store := newFakeAnalyticsStore(&graph.Snapshot{})
	engine := NewEngine(store, nil)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Nodes)
	assert.Zero(t, result.NodesUpdated)
}
