package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/graphista/pkg/types"
)

type fakeQAStore struct {
	chunkHits  []types.SearchHit
	chunksErr  error
	reportHits []types.SearchHit
	reportsErr error
	subgraph   []types.SubgraphEdge
	entities   []map[string]interface{}
	rows       []map[string]interface{}
	queryErr   error

	chunkFilters   []map[string]interface{}
	executedQuery  string
	reportCalls    int
	adjacentCalled bool
}

func (f *fakeQAStore) SimilarChunks(_ context.Context, embedding []float32, _ int, filter map[string]interface{}) ([]types.SearchHit, error) {
	f.chunkFilters = append(f.chunkFilters, filter)
	if len(embedding) == 0 {
		return nil, nil
	}
	return f.chunkHits, f.chunksErr
}

func (f *fakeQAStore) SimilarReports(_ context.Context, embedding []float32, _ int, _ map[string]interface{}, _ float64) ([]types.SearchHit, error) {
	f.reportCalls++
	if len(embedding) == 0 {
		return nil, nil
	}
	return f.reportHits, f.reportsErr
}

func (f *fakeQAStore) AdjacentChunks(_ context.Context, chunk *types.Chunk, _ bool) (*types.Chunk, *types.Chunk, *types.Chunk) {
	f.adjacentCalled = true
	return &types.Chunk{Text: "before"}, chunk, &types.Chunk{Text: "after"}
}

func (f *fakeQAStore) MentionedEntities(context.Context, *types.Chunk, int) ([]map[string]interface{}, error) {
	return f.entities, nil
}

func (f *fakeQAStore) SubgraphByCommunity(context.Context, []int, types.CommunityType) ([]types.SubgraphEdge, error) {
	return f.subgraph, nil
}

func (f *fakeQAStore) Labels(context.Context) ([]string, error) {
	return []string{"Document", "Chunk", "__Entity__"}, nil
}

func (f *fakeQAStore) RelationshipTypes(context.Context) ([]string, error) {
	return []string{"PART_OF", "NEXT", "MENTIONS"}, nil
}

func (f *fakeQAStore) ExecuteQuery(_ context.Context, query string, _ map[string]interface{}) ([]map[string]interface{}, error) {
	f.executedQuery = query
	return f.rows, f.queryErr
}

type scriptedLLM struct {
	fn      func(messages []types.Message) (*types.Response, error)
	prompts []string
}

func (s *scriptedLLM) Chat(_ context.Context, messages []types.Message) (*types.Response, error) {
	s.prompts = append(s.prompts, messages[0].Content+"\n"+messages[len(messages)-1].Content)
	return s.fn(messages)
}

func (s *scriptedLLM) Close() error { return nil }

func answerLLM(text string) *scriptedLLM {
	return &scriptedLLM{fn: func([]types.Message) (*types.Response, error) {
		return &types.Response{Content: text}, nil
	}}
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedSingle(context.Context, string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) Dimensions() int { return 2 }
func (s *stubEmbedder) Close() error    { return nil }

func hit(text string, metadata map[string]interface{}) types.SearchHit {
	return types.SearchHit{Content: text, Metadata: metadata, Score: 0.9}
}

func TestStrategyNamesRoundTrip(t *testing.T) {
	for _, strategy := range []Strategy{
		StrategySimilarity, StrategyStructured, StrategyCommunityGrounded, StrategySubgraph, StrategyCombined,
	} {
		parsed, err := ParseStrategy(strategy.String())
		require.NoError(t, err)
		assert.Equal(t, strategy, parsed)
	}

	_, err := ParseStrategy("mystery")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.False(t, Strategy(42).Valid())
}

func TestAnswerRejectsUnknownStrategy(t *testing.T) {
	responder := NewResponder(&fakeQAStore{}, answerLLM("x"), nil, &stubEmbedder{}, nil)

	_, err := responder.Answer(context.Background(), "q", Options{Strategy: Strategy(42)})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestSimilarityStrategyAssemblesChunkContext(t *testing.T) {
	store := &fakeQAStore{chunkHits: []types.SearchHit{
		hit("Ada wrote the first program.", nil),
		hit("Babbage designed the engine.", nil),
	}}
	llmClient := answerLLM("Ada Lovelace.")
	responder := NewResponder(store, llmClient, nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "who wrote the first program?", Options{
		Strategy: StrategySimilarity,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace.", answer.Text)
	assert.Contains(t, answer.Context, "\n Ada wrote the first program.")
	assert.Contains(t, answer.Context, "\n Babbage designed the engine.")
	require.Len(t, llmClient.prompts, 1)
	assert.Contains(t, llmClient.prompts[0], "Question: who wrote the first program?")
}

func TestSimilarityStrategyEmbeddingFailureStillGenerates(t *testing.T) {
	store := &fakeQAStore{chunkHits: []types.SearchHit{hit("unused", nil)}}
	llmClient := answerLLM("I don't know.")
	responder := NewResponder(store, llmClient, nil, &stubEmbedder{err: errors.New("model down")}, nil)

	answer, err := responder.Answer(context.Background(), "q", Options{Strategy: StrategySimilarity})
	require.NoError(t, err)
	assert.Equal(t, "I don't know.", answer.Text)
	assert.Empty(t, answer.Context)
	assert.Len(t, llmClient.prompts, 1, "generation must still run on empty context")
}

func TestSimilarityStrategyGenerationFailureSurfaces(t *testing.T) {
	llmClient := &scriptedLLM{fn: func([]types.Message) (*types.Response, error) {
		return nil, errors.New("quota exceeded")
	}}
	responder := NewResponder(&fakeQAStore{}, llmClient, nil, &stubEmbedder{}, nil)

	_, err := responder.Answer(context.Background(), "q", Options{Strategy: StrategySimilarity})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestSimilarityStrategyAdjacentExpansion(t *testing.T) {
	store := &fakeQAStore{chunkHits: []types.SearchHit{
		hit("middle", map[string]interface{}{"chunk_id": int64(1), "filename": "ada.txt"}),
	}}
	responder := NewResponder(store, answerLLM("ok"), nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "q", Options{
		Strategy:          StrategySimilarity,
		UseAdjacentChunks: true,
	})
	require.NoError(t, err)
	assert.True(t, store.adjacentCalled)
	assert.Contains(t, answer.Context, "before")
	assert.Contains(t, answer.Context, "middle")
	assert.Contains(t, answer.Context, "after")
}

func TestStructuredStrategyRunsGeneratedQuery(t *testing.T) {
	store := &fakeQAStore{rows: []map[string]interface{}{{"count": int64(12)}}}
	llmClient := &scriptedLLM{fn: func(messages []types.Message) (*types.Response, error) {
		if strings.Contains(messages[0].Content, "generate a Cypher statement") {
			return &types.Response{Content: "```cypher\nMATCH (c:Chunk) RETURN COUNT(c) AS count\n```"}, nil
		}
		return &types.Response{Content: "There are 12 chunks."}, nil
	}}
	responder := NewResponder(store, llmClient, nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "how many chunks?", Options{Strategy: StrategyStructured})
	require.NoError(t, err)

	assert.Equal(t, "MATCH (c:Chunk) RETURN COUNT(c) AS count", answer.GraphQuery)
	assert.Equal(t, "MATCH (c:Chunk) RETURN COUNT(c) AS count", store.executedQuery)
	require.Len(t, answer.GraphRows, 1)
	assert.Equal(t, "There are 12 chunks.", answer.Text)
}

func TestStructuredStrategyRejectsMutatingQuery(t *testing.T) {
	store := &fakeQAStore{}
	llmClient := &scriptedLLM{fn: func(messages []types.Message) (*types.Response, error) {
		if strings.Contains(messages[0].Content, "generate a Cypher statement") {
			return &types.Response{Content: "MATCH (n) DETACH DELETE n"}, nil
		}
		return &types.Response{Content: "no data"}, nil
	}}
	responder := NewResponder(store, llmClient, nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "wipe it", Options{Strategy: StrategyStructured})
	require.NoError(t, err)
	assert.Empty(t, store.executedQuery, "mutating query must never reach the database")
	assert.Empty(t, answer.GraphRows)
}

func TestStructuredStrategyRephraseFailureFallsBack(t *testing.T) {
	store := &fakeQAStore{}
	rephrase := &scriptedLLM{fn: func([]types.Message) (*types.Response, error) {
		return nil, errors.New("rephrase down")
	}}
	llmClient := &scriptedLLM{fn: func(messages []types.Message) (*types.Response, error) {
		if strings.Contains(messages[0].Content, "generate a Cypher statement") {
			assert.Contains(t, messages[len(messages)-1].Content, "QUESTION: original question")
			return &types.Response{Content: "MATCH (n) RETURN n LIMIT 1"}, nil
		}
		return &types.Response{Content: "answer"}, nil
	}}
	responder := NewResponder(store, llmClient, rephrase, &stubEmbedder{}, nil)

	_, err := responder.Answer(context.Background(), "original question", Options{Strategy: StrategyStructured})
	require.NoError(t, err)
}

func TestCommunityGroundedContextLabels(t *testing.T) {
	store := &fakeQAStore{
		reportHits: []types.SearchHit{hit("community summary", map[string]interface{}{
			"community_type": "leiden", "community_id": int64(4),
		})},
		chunkHits: []types.SearchHit{hit("community chunk text", nil)},
	}
	responder := NewResponder(store, answerLLM("grounded answer"), nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "q", Options{Strategy: StrategyCommunityGrounded})
	require.NoError(t, err)

	assert.Contains(t, answer.Context, "SUMMARY OF CHUNKS: \n community summary \n")
	assert.Contains(t, answer.Context, "CHUNKS: \n")
	assert.Contains(t, answer.Context, "community chunk text \n")

	require.NotEmpty(t, store.chunkFilters)
	assert.Equal(t, map[string]interface{}{"community_leiden": 4}, store.chunkFilters[0])
}

func TestSubgraphStrategyContextLabels(t *testing.T) {
	store := &fakeQAStore{
		reportHits: []types.SearchHit{hit("top report", map[string]interface{}{
			"community_type": "leiden", "community_id": int64(2),
		})},
		chunkHits: []types.SearchHit{hit("chunk body", map[string]interface{}{
			"chunk_id": int64(0), "filename": "ada.txt",
		})},
		subgraph: []types.SubgraphEdge{{
			Node1:        map[string]interface{}{"name": "Ada Lovelace"},
			Relationship: map[string]interface{}{"__type": "COLLABORATED_WITH"},
			Node2:        map[string]interface{}{"name": "Charles Babbage"},
		}},
		entities: []map[string]interface{}{{"name": "Ada Lovelace"}},
	}
	responder := NewResponder(store, answerLLM("subgraph answer"), nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "q", Options{Strategy: StrategySubgraph})
	require.NoError(t, err)

	assert.Contains(t, answer.Context, "SUMMARY OF COMMUNITY CHUNKS: \n top report \n")
	assert.Contains(t, answer.Context, "COMMUNITY GRAPH:")
	assert.Contains(t, answer.Context, "COMMUNITY CHUNKS:")
	assert.Contains(t, answer.Context, "CHUNK CONTENT: \n chunk body")
	assert.Contains(t, answer.Context, "MENTIONED ENTITIES: \n")
	assert.Contains(t, answer.Context, "Ada Lovelace \n")
}

func TestCombinedStrategySynthesizes(t *testing.T) {
	store := &fakeQAStore{
		chunkHits: []types.SearchHit{hit("vector context", nil)},
		rows:      []map[string]interface{}{{"n": "row"}},
	}
	llmClient := &scriptedLLM{fn: func(messages []types.Message) (*types.Response, error) {
		if strings.Contains(messages[0].Content, "generate a Cypher statement") {
			return &types.Response{Content: "MATCH (n) RETURN n LIMIT 1"}, nil
		}
		return &types.Response{Content: "synthesized"}, nil
	}}
	responder := NewResponder(store, llmClient, nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "q", Options{Strategy: StrategyCombined})
	require.NoError(t, err)
	assert.Equal(t, "synthesized", answer.Text)
	assert.Contains(t, answer.Context, "vector context")
	assert.NotEmpty(t, answer.GraphRows)

	last := llmClient.prompts[len(llmClient.prompts)-1]
	assert.Contains(t, last, "RETRIEVED CONTEXT:")
	assert.Contains(t, last, "QUERY RESULT ON GRAPH:")
}

func TestCombinedStrategyStructuredFailureDegrades(t *testing.T) {
	store := &fakeQAStore{
		chunkHits: []types.SearchHit{hit("vector context", nil)},
		queryErr:  errors.New("syntax error"),
	}
	llmClient := &scriptedLLM{fn: func(messages []types.Message) (*types.Response, error) {
		if strings.Contains(messages[0].Content, "generate a Cypher statement") {
			return &types.Response{Content: "MATCH (n) RETURN n"}, nil
		}
		return &types.Response{Content: "similarity-only answer"}, nil
	}}
	responder := NewResponder(store, llmClient, nil, &stubEmbedder{}, nil)

	answer, err := responder.Answer(context.Background(), "q", Options{Strategy: StrategyCombined})
	require.NoError(t, err)
	assert.Equal(t, "similarity-only answer", answer.Text)
	assert.Empty(t, answer.GraphRows)
	assert.Contains(t, answer.Context, "vector context")
}

func TestValidateReadOnly(t *testing.T) {
	assert.NoError(t, validateReadOnly("MATCH (n) RETURN n"))
	assert.ErrorIs(t, validateReadOnly("CREATE (n)"), ErrMutatingQuery)
	assert.ErrorIs(t, validateReadOnly("MATCH (n) SET n.x = 1"), ErrMutatingQuery)
	assert.ErrorIs(t, validateReadOnly(""), ErrMutatingQuery)
	assert.NoError(t, validateReadOnly("MATCH (n {name: 'reset'}) RETURN n"),
		"substring of a word must not trip the write filter")
}
