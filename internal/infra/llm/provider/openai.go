package provider

import (
	"context"
	"errors"
	"io"

	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/infra/llm/chatgpt"
)

// OpenAI adapts the ChatGPT client to the plan completion provider.
type OpenAI struct {
	client *chatgpt.Client
	model  string
}

// NewOpenAI constructs the adapter.
func NewOpenAI(client *chatgpt.Client, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

// Stream opens a streaming chat completion.
func (o *OpenAI) Stream(ctx context.Context, req plan.CompletionRequest) (plan.FragmentStream, error) {
	messages := make([]chatgpt.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, chatgpt.Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		messages = append(messages, chatgpt.Message{Role: string(msg.Role), Content: msg.Content})
	}
	stream, err := o.client.CreateChatCompletionStream(ctx, chatgpt.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream chatgpt.Stream
}

// Next skips chunks that carry no text, such as role-only deltas.
func (s *openAIStream) Next() (string, error) {
	for {
		chunk, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", err
		}
		if text := chunk.Content(); text != "" {
			return text, nil
		}
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

var _ plan.CompletionProvider = (*OpenAI)(nil)
