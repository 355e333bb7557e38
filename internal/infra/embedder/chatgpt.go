package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/ai-fitcoach/internal/infra/llm/chatgpt"
	"github.com/yanqian/ai-fitcoach/pkg/metrics"
)

// maxBatchTokens stays well below the provider's 300k per-request cap.
const maxBatchTokens = 200_000

// ChatGPTEmbedder calls an OpenAI-compatible embeddings API.
type ChatGPTEmbedder struct {
	client   *chatgpt.Client
	model    string
	maxBatch int
	logger   *slog.Logger
}

// NewChatGPTEmbedder constructs an embedder backed by the ChatGPT client.
// maxBatch caps the number of inputs per request; zero means no cap.
func NewChatGPTEmbedder(client *chatgpt.Client, model string, maxBatch int, logger *slog.Logger) *ChatGPTEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatGPTEmbedder{
		client:   client,
		model:    strings.TrimSpace(model),
		maxBatch: maxBatch,
		logger:   logger.With("component", "embedder.chatgpt"),
	}
}

// Embed requests embeddings for the given texts.
func (e *ChatGPTEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	var (
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
			Model: e.model,
			Input: batch,
		})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return fmt.Errorf("embedding result count mismatch: expected %d got %d", len(batch), len(resp.Data))
		}
		vectors := make([][]float32, len(batch))
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(batch) {
				return fmt.Errorf("embedding index %d out of range", item.Index)
			}
			vectors[item.Index] = item.Embedding
		}
		out = append(out, vectors...)
		e.logger.Debug("embedded batch", "inputs", len(batch), "estimated_tokens", batchTokens)
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := metrics.EstimateTokens(text)
		if tokens > maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: estimated tokens=%d", tokens)
		}
		full := e.maxBatch > 0 && len(batch) >= e.maxBatch
		if len(batch) > 0 && (full || batchTokens+tokens > maxBatchTokens) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Embedder = (*ChatGPTEmbedder)(nil)
