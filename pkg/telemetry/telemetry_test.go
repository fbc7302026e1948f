package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/graphista/pkg/types"
)

func newTestHandler(t *testing.T) (*ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	next := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)
	return h, dir
}

func parquetFiles(t *testing.T, dir, prefix string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var files []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".parquet") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files
}

func TestParquetHandlerBuffersErrorsOnly(t *testing.T) {
	h, dir := newTestHandler(t)
	log := slog.New(h)

	log.Info("routine message")
	log.Error("something broke", "component", "store")

	assert.Empty(t, parquetFiles(t, dir, "execution_errors_"), "below batch size, nothing flushed yet")
	require.NoError(t, h.Close())

	files := parquetFiles(t, dir, "execution_errors_")
	require.Len(t, files, 1, "only the error record triggers a file")
}

func TestParquetHandlerCloseWithoutErrorsWritesNothing(t *testing.T) {
	h, dir := newTestHandler(t)
	log := slog.New(h)

	log.Info("all fine")
	require.NoError(t, h.Close())
	assert.Empty(t, parquetFiles(t, dir, "execution_errors_"))
}

func TestUsageRecorderFlushesOnClose(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewUsageRecorder(dir)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), types.ContextKeyRequestID, "req-1")
	recorder.Record(ctx, "gpt-4o-mini", "answer", &types.TokenUsage{
		PromptTokens:     120,
		CompletionTokens: 30,
		TotalTokens:      150,
	})
	recorder.Record(ctx, "gpt-4o-mini", "answer", nil)

	require.NoError(t, recorder.Close())
	files := parquetFiles(t, dir, "token_usage_")
	require.Len(t, files, 1)
}
