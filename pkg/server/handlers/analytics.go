package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/graphista"
	"github.com/soundprediction/graphista/pkg/graph"
	"github.com/soundprediction/graphista/pkg/server/dto"
	"github.com/soundprediction/graphista/pkg/types"
)

// AnalyticsHandler handles graph analytics and report generation requests
type AnalyticsHandler struct {
	client graphista.GraphRAG
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(client graphista.GraphRAG) *AnalyticsHandler {
	return &AnalyticsHandler{client: client}
}

// RunAnalytics handles POST /api/v1/analytics/run. The whole graph is
// materialized in memory, so this is a batch operation and runs to
// completion before responding.
func (h *AnalyticsHandler) RunAnalytics(c *gin.Context) {
	result, err := h.client.RunAnalytics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "analytics_failed", Message: err.Error()})
		return
	}

	resp := dto.AnalyticsResponse{
		Nodes:             result.Nodes,
		Edges:             result.Edges,
		NodesUpdated:      result.NodesUpdated,
		LouvainModularity: result.LouvainModularity,
		LeidenModularity:  result.LeidenModularity,
	}
	for _, algErr := range result.AlgorithmErrors {
		resp.AlgorithmErrors = append(resp.AlgorithmErrors, algErr.Error())
	}

	c.JSON(http.StatusOK, resp)
}

// BuildReports handles POST /api/v1/reports/build
func (h *AnalyticsHandler) BuildReports(c *gin.Context) {
	var req dto.ReportsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	communityType := types.CommunityType(req.CommunityType)
	if req.CommunityType != "" && !communityType.Valid() {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: graph.ErrInvalidCommunityType.Error(),
		})
		return
	}

	result, err := h.client.BuildReports(c.Request.Context(), communityType)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, graph.ErrInvalidCommunityType) {
			status = http.StatusBadRequest
		}
		c.JSON(status, dto.ErrorResponse{Error: "reports_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ReportsResponse{
		Generated: result.Generated,
		Skipped:   result.Skipped,
	})
}
