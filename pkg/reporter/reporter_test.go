package reporter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/graphista/pkg/types"
)

type fakeReporterStore struct {
	communities []*types.Community
	listErr     error
	upsertErr   error
	reports     []*types.CommunityReport
}

func (f *fakeReporterStore) Communities(context.Context, types.CommunityType) ([]*types.Community, error) {
	return f.communities, f.listErr
}

func (f *fakeReporterStore) UpsertCommunityReport(_ context.Context, report *types.CommunityReport) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.reports = append(f.reports, report)
	return nil
}

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Chat(_ context.Context, messages []types.Message) (*types.Response, error) {
	f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Response{Content: f.response}, nil
}

func (f *fakeLLM) Close() error { return nil }

type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.embedding
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.embedding) }
func (f *fakeEmbedder) Close() error    { return nil }

func community(id int, texts ...string) *types.Community {
	c := &types.Community{Type: types.CommunityLeiden, ID: id, Size: len(texts)}
	for i, text := range texts {
		c.Chunks = append(c.Chunks, &types.Chunk{ChunkID: i, Filename: "ada.txt", Text: text})
	}
	return c
}

func TestBuildReportsPersistsSummaryAndEmbedding(t *testing.T) {
	store := &fakeReporterStore{
		communities: []*types.Community{community(0, "Ada wrote the first program.")},
	}
	llmClient := &fakeLLM{response: "a community about Ada"}
	embedderClient := &fakeEmbedder{embedding: []float32{0.1, 0.2}}

	reporter := NewReporter(store, llmClient, embedderClient, nil)
	result, err := reporter.BuildReports(context.Background(), types.CommunityLeiden)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Generated)
	assert.Zero(t, result.Skipped)
	require.Len(t, store.reports, 1)
	assert.Equal(t, "a community about Ada", store.reports[0].Summary)
	assert.Equal(t, []float32{0.1, 0.2}, store.reports[0].SummaryEmbedding)
	assert.Equal(t, 0, store.reports[0].CommunityID)
	assert.False(t, store.reports[0].CreatedAt.IsZero())
}

func TestBuildReportsSkipsEmptyCommunities(t *testing.T) {
	store := &fakeReporterStore{
		communities: []*types.Community{
			{Type: types.CommunityLeiden, ID: 0},
			community(1, "has a chunk"),
		},
	}
	reporter := NewReporter(store, &fakeLLM{response: "summary"}, &fakeEmbedder{embedding: []float32{1}}, nil)

	result, err := reporter.BuildReports(context.Background(), types.CommunityLeiden)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, result.Skipped)
}

func TestBuildReportsSummarizationFailureSkipsCommunity(t *testing.T) {
	store := &fakeReporterStore{
		communities: []*types.Community{community(0, "text")},
	}
	reporter := NewReporter(store, &fakeLLM{err: errors.New("rate limit")}, &fakeEmbedder{embedding: []float32{1}}, nil)

	result, err := reporter.BuildReports(context.Background(), types.CommunityLeiden)
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, store.reports)
}

func TestBuildReportsEmbeddingFailureStillPersists(t *testing.T) {
	store := &fakeReporterStore{
		communities: []*types.Community{community(0, "text")},
	}
	reporter := NewReporter(store, &fakeLLM{response: "summary"}, &fakeEmbedder{err: errors.New("down")}, nil)

	result, err := reporter.BuildReports(context.Background(), types.CommunityLeiden)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	require.Len(t, store.reports, 1)
	assert.Empty(t, store.reports[0].SummaryEmbedding)
}

func TestBuildReportsNormalizesDoubleNewlines(t *testing.T) {
	store := &fakeReporterStore{
		communities: []*types.Community{community(0, "first\n\nsecond")},
	}
	llmClient := &fakeLLM{response: "summary"}
	reporter := NewReporter(store, llmClient, &fakeEmbedder{embedding: []float32{1}}, nil)

	_, err := reporter.BuildReports(context.Background(), types.CommunityLeiden)
	require.NoError(t, err)
	require.Len(t, llmClient.prompts, 1)
	assert.Contains(t, llmClient.prompts[0], "first\nsecond")
}

func TestBuildReportsListFailureIsFatal(t *testing.T) {
	store := &fakeReporterStore{listErr: errors.New("connection refused")}
	reporter := NewReporter(store, &fakeLLM{}, &fakeEmbedder{}, nil)

	_, err := reporter.BuildReports(context.Background(), types.CommunityLeiden)
	assert.Error(t, err)
}
