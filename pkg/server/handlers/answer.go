package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/graphista"
	"github.com/soundprediction/graphista/pkg/qa"
	"github.com/soundprediction/graphista/pkg/server/dto"
	"github.com/soundprediction/graphista/pkg/types"
)

// AnswerHandler handles question answering requests
type AnswerHandler struct {
	client graphista.GraphRAG
}

// NewAnswerHandler creates a new answer handler
func NewAnswerHandler(client graphista.GraphRAG) *AnswerHandler {
	return &AnswerHandler{client: client}
}

// Answer handles POST /api/v1/answer
func (h *AnswerHandler) Answer(c *gin.Context) {
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	var opts *qa.Options
	if req.Strategy != "" {
		strategy, err := qa.ParseStrategy(req.Strategy)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
			return
		}
		opts = &qa.Options{
			Strategy:          strategy,
			CommunityType:     types.CommunityType(req.CommunityType),
			TopK:              req.TopK,
			UseAdjacentChunks: req.UseAdjacentChunks,
			Filter:            req.Filter,
		}
	}

	answer, err := h.client.Answer(c.Request.Context(), req.Question, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, qa.ErrUnknownStrategy) {
			status = http.StatusBadRequest
		}
		c.JSON(status, dto.ErrorResponse{Error: "answer_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.AnswerResponse{
		Answer:     answer.Text,
		Strategy:   answer.Strategy.String(),
		Context:    answer.Context,
		GraphQuery: answer.GraphQuery,
		GraphRows:  answer.GraphRows,
	})
}
