package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/graphista"
	"github.com/soundprediction/graphista/pkg/server/dto"
)

// IngestHandler handles document ingestion requests
type IngestHandler struct {
	client graphista.GraphRAG
	logger *slog.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(client graphista.GraphRAG, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestHandler{
		client: client,
		logger: logger,
	}
}

// generateProcessID generates a unique process ID for tracking async operations
func generateProcessID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random generation fails
		return fmt.Sprintf("proc_%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("proc_%s", hex.EncodeToString(bytes))
}

// Ingest handles POST /api/v1/ingest. Ingestion runs in the background; the
// response acknowledges the queued run with a process id.
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	processID := generateProcessID()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("panic recovered in ingestion", "process_id", processID, "folder", req.Folder, "panic", r)
			}
		}()

		ctx := context.Background()
		h.logger.Info("starting ingestion", "process_id", processID, "folder", req.Folder)

		result, err := h.client.Ingest(ctx, req.Folder)
		if err != nil {
			h.logger.Error("ingestion failed", "process_id", processID, "folder", req.Folder, "error", err)
			return
		}
		h.logger.Info("ingestion finished", "process_id", processID,
			"ingested", result.Ingested, "skipped", result.Skipped)
	}()

	c.JSON(http.StatusAccepted, dto.IngestResponse{
		Success:   true,
		Message:   fmt.Sprintf("Queued ingestion of %s", req.Folder),
		ProcessID: processID,
	})
}
