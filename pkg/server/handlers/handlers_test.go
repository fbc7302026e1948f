package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/graphista/pkg/analytics"
	"github.com/soundprediction/graphista/pkg/ingestion"
	"github.com/soundprediction/graphista/pkg/qa"
	"github.com/soundprediction/graphista/pkg/reporter"
	"github.com/soundprediction/graphista/pkg/server/dto"
	"github.com/soundprediction/graphista/pkg/types"
)

type fakeClient struct {
	ingested      chan string
	answer        *qa.Answer
	answerErr     error
	answerOpts    *qa.Options
	reportsType   types.CommunityType
	healthErr     error
	statsCounts   *types.Counts
	analyticsErr  error
	analyticsDone bool
}

func (f *fakeClient) Ingest(ctx context.Context, folder string) (*ingestion.Result, error) {
	if f.ingested != nil {
		f.ingested <- folder
	}
	return &ingestion.Result{Ingested: 1}, nil
}

func (f *fakeClient) IngestDocuments(ctx context.Context, docs []*types.Document) (*ingestion.Result, error) {
	return &ingestion.Result{Ingested: len(docs)}, nil
}

func (f *fakeClient) Answer(ctx context.Context, question string, opts *qa.Options) (*qa.Answer, error) {
	f.answerOpts = opts
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &qa.Answer{Text: "an answer", Strategy: qa.StrategySimilarity}, nil
}

func (f *fakeClient) RunAnalytics(ctx context.Context) (*analytics.Result, error) {
	if f.analyticsErr != nil {
		return nil, f.analyticsErr
	}
	f.analyticsDone = true
	modularity := 0.42
	return &analytics.Result{Nodes: 10, Edges: 12, NodesUpdated: 10, LouvainModularity: &modularity}, nil
}

func (f *fakeClient) BuildReports(ctx context.Context, communityType types.CommunityType) (*reporter.Result, error) {
	f.reportsType = communityType
	return &reporter.Result{Generated: 2, Skipped: 1}, nil
}

func (f *fakeClient) Stats(ctx context.Context) (*types.Counts, error) {
	if f.statsCounts != nil {
		return f.statsCounts, nil
	}
	return &types.Counts{Nodes: 4, Labels: 2, Relationships: 3, Documents: 1}, nil
}

func (f *fakeClient) Labels(ctx context.Context) ([]string, error) {
	return []string{"Chunk", "Document"}, nil
}

func (f *fakeClient) RelationshipTypes(ctx context.Context) ([]string, error) {
	return []string{"PART_OF", "NEXT"}, nil
}

func (f *fakeClient) HealthCheck(ctx context.Context) error { return f.healthErr }
func (f *fakeClient) Close(ctx context.Context) error       { return nil }

func performJSON(t *testing.T, handler gin.HandlerFunc, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Handle(method, path, handler)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnswerReturnsGeneratedText(t *testing.T) {
	client := &fakeClient{}
	handler := NewAnswerHandler(client)

	w := performJSON(t, handler.Answer, http.MethodPost, "/answer", dto.AnswerRequest{
		Question: "Who wrote the first program?",
		Strategy: "similarity",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.AnswerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "an answer", resp.Answer)
	assert.Equal(t, "similarity", resp.Strategy)
	require.NotNil(t, client.answerOpts)
	assert.Equal(t, qa.StrategySimilarity, client.answerOpts.Strategy)
}

func TestAnswerDefaultsWhenStrategyOmitted(t *testing.T) {
	client := &fakeClient{}
	handler := NewAnswerHandler(client)

	w := performJSON(t, handler.Answer, http.MethodPost, "/answer", dto.AnswerRequest{
		Question: "anything",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, client.answerOpts, "nil options let the client apply its defaults")
}

func TestAnswerRejectsUnknownStrategy(t *testing.T) {
	handler := NewAnswerHandler(&fakeClient{})

	w := performJSON(t, handler.Answer, http.MethodPost, "/answer", dto.AnswerRequest{
		Question: "anything",
		Strategy: "quantum",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	handler := NewAnswerHandler(&fakeClient{})

	w := performJSON(t, handler.Answer, http.MethodPost, "/answer", map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnswerSurfacesGenerationFailure(t *testing.T) {
	handler := NewAnswerHandler(&fakeClient{answerErr: errors.New("model unavailable")})

	w := performJSON(t, handler.Answer, http.MethodPost, "/answer", dto.AnswerRequest{Question: "anything"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestIngestQueuesBackgroundRun(t *testing.T) {
	client := &fakeClient{ingested: make(chan string, 1)}
	handler := NewIngestHandler(client, nil)

	w := performJSON(t, handler.Ingest, http.MethodPost, "/ingest", dto.IngestRequest{Folder: "/data/docs"})

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp dto.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ProcessID)

	select {
	case folder := <-client.ingested:
		assert.Equal(t, "/data/docs", folder)
	case <-time.After(2 * time.Second):
		t.Fatal("background ingestion never ran")
	}
}

func TestIngestRequiresFolder(t *testing.T) {
	handler := NewIngestHandler(&fakeClient{}, nil)

	w := performJSON(t, handler.Ingest, http.MethodPost, "/ingest", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunAnalyticsReportsModularity(t *testing.T) {
	client := &fakeClient{}
	handler := NewAnalyticsHandler(client)

	w := performJSON(t, handler.RunAnalytics, http.MethodPost, "/analytics/run", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.AnalyticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.NodesUpdated)
	require.NotNil(t, resp.LouvainModularity)
	assert.InDelta(t, 0.42, *resp.LouvainModularity, 1e-9)
	assert.True(t, client.analyticsDone)
}

func TestBuildReportsAcceptsEmptyBody(t *testing.T) {
	client := &fakeClient{}
	handler := NewAnalyticsHandler(client)

	w := performJSON(t, handler.BuildReports, http.MethodPost, "/reports/build", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ReportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Generated)
	assert.Equal(t, types.CommunityType(""), client.reportsType)
}

func TestBuildReportsRejectsUnknownPartition(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeClient{})

	w := performJSON(t, handler.BuildReports, http.MethodPost, "/reports/build", dto.ReportsRequest{CommunityType: "girvan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsIncludesSchema(t *testing.T) {
	handler := NewStatsHandler(&fakeClient{})

	w := performJSON(t, handler.Stats, http.MethodGet, "/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(4), resp.Nodes)
	assert.Contains(t, resp.LabelNames, "Chunk")
	assert.Contains(t, resp.RelationshipTypes, "NEXT")
}

func TestReadinessReflectsConnectivity(t *testing.T) {
	handler := NewHealthHandler(&fakeClient{healthErr: errors.New("refused")})

	w := performJSON(t, handler.ReadinessCheck, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	handler = NewHealthHandler(&fakeClient{})
	w = performJSON(t, handler.ReadinessCheck, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
