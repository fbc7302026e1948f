package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/graphista/pkg/types"
)

// UsageRecord represents one model call's token consumption in Parquet.
type UsageRecord struct {
	ID               string    `parquet:"id"`
	Timestamp        time.Time `parquet:"timestamp"`
	RequestID        string    `parquet:"request_id"`
	Model            string    `parquet:"model"`
	Operation        string    `parquet:"operation"`
	PromptTokens     int       `parquet:"prompt_tokens"`
	CompletionTokens int       `parquet:"completion_tokens"`
	TotalTokens      int       `parquet:"total_tokens"`
}

// UsageRecorder buffers token usage and flushes it to Parquet files.
type UsageRecorder struct {
	outputDir string
	mu        sync.Mutex
	buffer    []UsageRecord
	batchSize int
}

// NewUsageRecorder creates a UsageRecorder writing under outputDir.
func NewUsageRecorder(outputDir string) (*UsageRecorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &UsageRecorder{
		outputDir: outputDir,
		batchSize: 100,
		buffer:    make([]UsageRecord, 0, 100),
	}, nil
}

// Record buffers one model call. A nil usage is ignored.
func (u *UsageRecorder) Record(ctx context.Context, model, operation string, usage *types.TokenUsage) {
	if usage == nil {
		return
	}

	var requestID string
	if v, ok := ctx.Value(types.ContextKeyRequestID).(string); ok {
		requestID = v
	}

	record := UsageRecord{
		ID:               uuid.New().String(),
		Timestamp:        time.Now().UTC(),
		RequestID:        requestID,
		Model:            model,
		Operation:        operation,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.buffer = append(u.buffer, record)
	if len(u.buffer) >= u.batchSize {
		u.flush()
	}
}

// Close flushes any buffered records.
func (u *UsageRecorder) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.flush()
}

// flush writes the buffer to a new Parquet file. Caller must hold the lock.
func (u *UsageRecorder) flush() error {
	if len(u.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("token_usage_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(u.outputDir, filename)

	if err := parquet.WriteFile(path, u.buffer); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write usage parquet file: %v\n", err)
		return err
	}

	u.buffer = u.buffer[:0]
	return nil
}
