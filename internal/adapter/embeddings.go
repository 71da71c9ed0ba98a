package adapter

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"codeatlas/pkg/logger"
)

// EmbeddingAdapter wraps the embedding endpoint exposed through LiteLLM
type EmbeddingAdapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewEmbeddingAdapter creates a new embedding adapter
func NewEmbeddingAdapter(baseURL, apiKey, model string) *EmbeddingAdapter {
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"

	return &EmbeddingAdapter{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.Get(),
	}
}

// Embed returns the fixed-length embedding vector for text
func (a *EmbeddingAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(a.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	a.logger.Debug("Embedded text",
		zap.Int("chars", len(text)),
		zap.Int("dims", len(resp.Data[0].Embedding)),
	)
	return resp.Data[0].Embedding, nil
}
