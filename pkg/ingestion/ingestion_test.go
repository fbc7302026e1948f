package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/graphista/pkg/types"
)

func TestCleanTextSplitsGluedWords(t *testing.T) {
	cleaner := NewCleaner()

	assert.Equal(t, "Ada Lovelace", cleaner.CleanText("AdaLovelace"))
	assert.Equal(t, "version2 Beta", cleaner.CleanText("version2Beta"))
}

func TestCleanTextNormalizesPunctuation(t *testing.T) {
	cleaner := NewCleaner()

	assert.Equal(t, "a-b", cleaner.CleanText("a–b"))
	assert.Equal(t, "it's", cleaner.CleanText("it’s"))
	assert.Equal(t, "plain", cleaner.CleanText("**plain**"))
}

func TestCleanTextStripsByteOrderMarks(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.CleanText("\uFEFFintro\uFEFF body")
	assert.Equal(t, "intro body", got)
}

func TestCleanTextDropsPageFooters(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.CleanText("intro Pagina 3 di 12 outro")
	assert.Equal(t, "intro outro", got)
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.CleanText("one\n\n\ntwo\t\tthree")
	assert.Equal(t, "one two three", got)
}

func TestChunkerRejectsOverlapNotBelowSize(t *testing.T) {
	_, err := NewChunker(100, 100)
	assert.Error(t, err)
}

func TestChunkDocumentShortTextIsOneChunk(t *testing.T) {
	chunker, err := NewChunker(100, 10)
	require.NoError(t, err)

	doc := &types.Document{Filename: "short.txt", Version: 1, Text: "just a few words"}
	chunker.ChunkDocument(doc)

	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, 0, doc.Chunks[0].ChunkID)
	assert.Equal(t, "just a few words", doc.Chunks[0].Text)
	assert.Equal(t, 100, doc.Chunks[0].ChunkSize)
	assert.Equal(t, 10, doc.Chunks[0].ChunkOverlap)
}

func TestChunkDocumentNumbersChunksInOrder(t *testing.T) {
	chunker, err := NewChunker(40, 8)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "sentence number %d here. ", i)
	}
	doc := &types.Document{Filename: "long.txt", Version: 1, Text: b.String()}
	chunker.ChunkDocument(doc)

	require.Greater(t, len(doc.Chunks), 2)
	for i, chunk := range doc.Chunks {
		assert.Equal(t, i, chunk.ChunkID)
		assert.Equal(t, "long.txt", chunk.Filename)
		assert.Equal(t, 1, chunk.Version)
		assert.NotEmpty(t, chunk.Text)
	}
}

func TestChunkDocumentCarriesOverlap(t *testing.T) {
	chunker, err := NewChunker(30, 12)
	require.NoError(t, err)

	doc := &types.Document{
		Filename: "overlap.txt",
		Version:  1,
		Text:     "alpha beta gamma delta epsilon zeta eta theta iota kappa",
	}
	chunker.ChunkDocument(doc)
	require.Greater(t, len(doc.Chunks), 1)

	first := doc.Chunks[0].Text
	second := doc.Chunks[1].Text
	words := strings.Fields(first)
	lastWord := words[len(words)-1]
	assert.Contains(t, second, lastWord, "second chunk should repeat the tail of the first")
}

type stubEmbedClient struct {
	embeddings [][]float32
	err        error
}

func (s *stubEmbedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.embeddings != nil {
		return s.embeddings, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (s *stubEmbedClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *stubEmbedClient) Dimensions() int { return 2 }
func (s *stubEmbedClient) Close() error    { return nil }

func TestEmbedDocumentChunksAssignsVectorsAndModel(t *testing.T) {
	embedder := NewChunkEmbedder(&stubEmbedClient{}, "text-embedding-3-small", nil)
	doc := &types.Document{
		Filename: "a.txt",
		Chunks: []*types.Chunk{
			{ChunkID: 0, Text: "first"},
			{ChunkID: 1, Text: "second"},
		},
	}

	require.NoError(t, embedder.EmbedDocumentChunks(context.Background(), doc))
	assert.Equal(t, []float32{0, 1}, doc.Chunks[0].Embedding)
	assert.Equal(t, []float32{1, 1}, doc.Chunks[1].Embedding)
	assert.Equal(t, "text-embedding-3-small", doc.Chunks[0].EmbeddingsModel)
}

func TestEmbedDocumentChunksCountMismatch(t *testing.T) {
	embedder := NewChunkEmbedder(&stubEmbedClient{embeddings: [][]float32{{1}}}, "m", nil)
	doc := &types.Document{
		Filename: "a.txt",
		Chunks:   []*types.Chunk{{Text: "x"}, {Text: "y"}},
	}

	assert.Error(t, embedder.EmbedDocumentChunks(context.Background(), doc))
}

type stubChatClient struct {
	content string
	err     error
}

func (s *stubChatClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.Response{Content: s.content}, nil
}

func (s *stubChatClient) Close() error { return nil }

func TestMineChunkParsesFencedOutput(t *testing.T) {
	content := "Here is the graph:\n```json\n{\"nodes\": [{\"id\": \"Ada Lovelace\", \"type\": \"Person\"}], \"relationships\": []}\n```"
	miner := NewMiner(&stubChatClient{content: content}, nil, nil)

	entities, relationships, err := miner.MineChunk(context.Background(), "Ada Lovelace wrote programs.")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Ada Lovelace", entities[0].ID)
	assert.Equal(t, "Person", entities[0].Type)
	assert.Empty(t, relationships)
}

func TestMineChunkRepairsMalformedJSON(t *testing.T) {
	content := `{"nodes": [{"id": "Babbage", "type": "Person",}], "relationships": [],}`
	miner := NewMiner(&stubChatClient{content: content}, nil, nil)

	entities, _, err := miner.MineChunk(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Babbage", entities[0].ID)
}

func TestMineChunkFiltersByOntology(t *testing.T) {
	content := `{
		"nodes": [
			{"id": "Ada", "type": "Person"},
			{"id": "London", "type": "City"}
		],
		"relationships": [
			{"source_id": "Ada", "target_id": "London", "type": "LIVED_IN"},
			{"source_id": "Ada", "target_id": "Ada", "type": "KNOWS"}
		]
	}`
	ontology := &types.Ontology{
		AllowedLabels:    []string{"person"},
		AllowedRelations: []string{"knows"},
	}
	miner := NewMiner(&stubChatClient{content: content}, ontology, nil)

	entities, relationships, err := miner.MineChunk(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Ada", entities[0].ID)
	require.Len(t, relationships, 1)
	assert.Equal(t, "KNOWS", relationships[0].Type)
}

func TestMineChunkDropsRelationshipsWithMissingEndpoints(t *testing.T) {
	content := `{
		"nodes": [{"id": "Ada", "type": "Person"}],
		"relationships": [{"source_id": "Ada", "target_id": "Ghost", "type": "KNOWS"}]
	}`
	miner := NewMiner(&stubChatClient{content: content}, nil, nil)

	_, relationships, err := miner.MineChunk(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, relationships)
}

func TestMineChunkErrorOnNonJSONOutput(t *testing.T) {
	miner := NewMiner(&stubChatClient{content: "I cannot do that."}, nil, nil)

	_, _, err := miner.MineChunk(context.Background(), "text")
	assert.Error(t, err)
}

type fakePipelineStore struct {
	connectivityErr error
	chunkErrs       map[int]error

	chunks        []*types.Chunk
	subgraphs     []*types.Chunk
	linkedFiles   []string
	linkedVersion []int
	documents     []*types.Document
}

func (f *fakePipelineStore) VerifyConnectivity(ctx context.Context) error {
	return f.connectivityErr
}

func (f *fakePipelineStore) UpsertChunkEmbedding(ctx context.Context, chunk *types.Chunk, metadata map[string]interface{}) error {
	if err := f.chunkErrs[chunk.ChunkID]; err != nil {
		return err
	}
	f.chunks = append(f.chunks, chunk)
	return nil
}

func (f *fakePipelineStore) MergeEntitiesAndRelationships(ctx context.Context, chunk *types.Chunk) error {
	f.subgraphs = append(f.subgraphs, chunk)
	return nil
}

func (f *fakePipelineStore) LinkChunkSequence(ctx context.Context, filename string, version int) error {
	f.linkedFiles = append(f.linkedFiles, filename)
	f.linkedVersion = append(f.linkedVersion, version)
	return nil
}

func (f *fakePipelineStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	f.documents = append(f.documents, doc)
	return nil
}

func newTestPipeline(t *testing.T, store Store, miner *Miner) *Pipeline {
	t.Helper()
	chunker, err := NewChunker(60, 12)
	require.NoError(t, err)
	chunkEmbedder := NewChunkEmbedder(&stubEmbedClient{}, "text-embedding-3-small", nil)
	return NewPipeline(store, NewCleaner(), chunker, chunkEmbedder, miner, nil)
}

func TestPipelineIngestsDocumentEndToEnd(t *testing.T) {
	store := &fakePipelineStore{}
	pipeline := newTestPipeline(t, store, nil)

	doc := &types.Document{
		Filename: "ada.txt",
		Version:  1,
		Text: "Ada Lovelace wrote the first program. " +
			"She worked with Charles Babbage on the analytical engine. " +
			"Her notes described looping and conditional branching in detail.",
	}

	result, err := pipeline.Run(context.Background(), []*types.Document{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 0, result.Skipped)

	require.Len(t, store.chunks, 4)
	for i, chunk := range store.chunks {
		assert.Equal(t, i, chunk.ChunkID)
		assert.Equal(t, "ada.txt", chunk.Filename)
		assert.NotEmpty(t, chunk.Embedding)
	}
	assert.Equal(t, []string{"ada.txt"}, store.linkedFiles)
	assert.Equal(t, []int{1}, store.linkedVersion)
	require.Len(t, store.documents, 1)
}

func TestPipelineConnectivityFailureIsFatal(t *testing.T) {
	store := &fakePipelineStore{connectivityErr: errors.New("refused")}
	pipeline := newTestPipeline(t, store, nil)

	_, err := pipeline.Run(context.Background(), []*types.Document{{Filename: "a.txt", Text: "x"}})
	assert.Error(t, err)
	assert.Empty(t, store.chunks)
}

func TestPipelineSkipsInvalidDocuments(t *testing.T) {
	store := &fakePipelineStore{}
	pipeline := newTestPipeline(t, store, nil)

	docs := []*types.Document{
		{Filename: "", Text: "orphan text"},
		{Filename: "ok.txt", Version: 1, Text: "valid document text"},
	}
	result, err := pipeline.Run(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, store.documents, 1)
	assert.Equal(t, "ok.txt", store.documents[0].Filename)
}

func TestPipelineContinuesPastChunkWriteFailure(t *testing.T) {
	store := &fakePipelineStore{chunkErrs: map[int]error{0: errors.New("deadlock")}}
	pipeline := newTestPipeline(t, store, nil)

	doc := &types.Document{
		Filename: "partial.txt",
		Version:  1,
		Text: "First paragraph with enough words to become a chunk here. " +
			"Second paragraph that also has enough words to stand alone.",
	}
	result, err := pipeline.Run(context.Background(), []*types.Document{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	assert.NotEmpty(t, store.chunks, "remaining chunks still written")
	for _, chunk := range store.chunks {
		assert.NotEqual(t, 0, chunk.ChunkID)
	}
	require.Len(t, store.documents, 1)
}

func TestPipelineStoresMinedSubgraphs(t *testing.T) {
	store := &fakePipelineStore{}
	content := `{"nodes": [{"id": "Ada", "type": "Person"}], "relationships": []}`
	miner := NewMiner(&stubChatClient{content: content}, nil, nil)
	pipeline := newTestPipeline(t, store, miner)

	doc := &types.Document{Filename: "mined.txt", Version: 1, Text: "Ada wrote programs."}
	result, err := pipeline.Run(context.Background(), []*types.Document{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	require.NotEmpty(t, store.subgraphs)
	require.Len(t, store.subgraphs[0].Entities, 1)
	assert.Equal(t, "Ada", store.subgraphs[0].Entities[0].ID)
}

func writeTestFile(dir, name, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}

func TestLocalIngestorLoadsFolderMetadata(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "reports")
	require.NoError(t, writeTestFile(sub, "q1.txt", "quarterly text"))
	require.NoError(t, writeTestFile(sub, "image.png", "binary"))

	ingestor := NewLocalIngestor(dir)
	files, err := ingestor.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)

	doc, err := ingestor.LoadDocument(files[0], 2)
	require.NoError(t, err)
	assert.Equal(t, "q1.txt", doc.Filename)
	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, "quarterly text", doc.Text)
	assert.Equal(t, "reports", doc.Metadata["folder"])
}
