package provider

import (
	"context"

	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/infra/llm/anthropic"
)

// Anthropic adapts the Messages API client to the plan completion provider.
type Anthropic struct {
	client *anthropic.Client
	model  string
}

// NewAnthropic constructs the adapter.
func NewAnthropic(client *anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model}
}

// Stream opens a streaming messages request.
func (a *Anthropic) Stream(ctx context.Context, req plan.CompletionRequest) (plan.FragmentStream, error) {
	messages := make([]anthropic.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, anthropic.Message{Role: string(msg.Role), Content: msg.Content})
	}
	stream, err := a.client.StreamMessages(ctx, anthropic.MessagesRequest{
		Model:       a.model,
		System:      req.SystemPrompt,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return &anthropicStream{stream: stream}, nil
}

type anthropicStream struct {
	stream *anthropic.MessageStream
}

func (s *anthropicStream) Next() (string, error) {
	for {
		text, err := s.stream.Recv()
		if err != nil {
			return "", err
		}
		if text != "" {
			return text, nil
		}
	}
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

var _ plan.CompletionProvider = (*Anthropic)(nil)
