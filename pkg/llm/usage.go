package llm

import (
	"context"

	"github.com/soundprediction/graphista/pkg/types"
)

// UsageSink receives token usage from completed model calls.
type UsageSink interface {
	Record(ctx context.Context, model, operation string, usage *types.TokenUsage)
}

// UsageTrackingClient wraps a Client so every successful call reports its
// token consumption to a sink.
type UsageTrackingClient struct {
	client    Client
	sink      UsageSink
	operation string
}

// WithUsageTracking wraps client so token usage flows into sink, tagged with
// the given operation name. A nil sink returns the client unwrapped.
func WithUsageTracking(client Client, sink UsageSink, operation string) Client {
	if sink == nil {
		return client
	}
	return &UsageTrackingClient{client: client, sink: sink, operation: operation}
}

// Chat implements Client.
func (c *UsageTrackingClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	response, err := c.client.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	c.sink.Record(ctx, response.Model, c.operation, response.TokensUsed)
	return response, nil
}

// Close implements Client. A sink that is itself closeable is flushed too;
// sinks shared across clients must tolerate repeated Close calls.
func (c *UsageTrackingClient) Close() error {
	err := c.client.Close()
	if closer, ok := c.sink.(interface{ Close() error }); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
