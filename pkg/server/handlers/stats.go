package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/graphista"
	"github.com/soundprediction/graphista/pkg/server/dto"
)

// StatsHandler handles graph statistics requests
type StatsHandler struct {
	client graphista.GraphRAG
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(client graphista.GraphRAG) *StatsHandler {
	return &StatsHandler{client: client}
}

// Stats handles GET /api/v1/stats
func (h *StatsHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.client.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "stats_failed", Message: err.Error()})
		return
	}

	resp := dto.StatsResponse{
		Nodes:         counts.Nodes,
		Labels:        counts.Labels,
		Relationships: counts.Relationships,
		Documents:     counts.Documents,
	}

	// Schema listings are best effort; counts alone still make a response.
	if labels, err := h.client.Labels(ctx); err == nil {
		resp.LabelNames = labels
	}
	if relTypes, err := h.client.RelationshipTypes(ctx); err == nil {
		resp.RelationshipTypes = relTypes
	}

	c.JSON(http.StatusOK, resp)
}
