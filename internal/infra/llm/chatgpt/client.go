package chatgpt

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Message mirrors the OpenAI chat message structure.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload sent to the chat completions API.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// ChatCompletionStreamChunk captures a streaming frame. Some compatible
// servers report failures as an error frame inside a 200 stream.
type ChatCompletionStreamChunk struct {
	Choices []struct {
		Delta        Message `json:"delta"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *APIErrorDetail `json:"error,omitempty"`
}

// Content concatenates the delta text of every choice.
func (c ChatCompletionStreamChunk) Content() string {
	if len(c.Choices) == 1 {
		return c.Choices[0].Delta.Content
	}
	var b strings.Builder
	for _, choice := range c.Choices {
		b.WriteString(choice.Delta.Content)
	}
	return b.String()
}

// EmbeddingRequest asks for vectors for one or more inputs.
type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingResponse holds vectors in input order via Index.
type EmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// APIErrorDetail is the error object returned by the API.
type APIErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is returned for non-2xx responses and in-stream error frames.
// Status is zero for the latter.
type APIError struct {
	Status int
	Detail APIErrorDetail
	Body   string
}

func (e *APIError) Error() string {
	msg := e.Detail.Message
	if msg == "" {
		msg = e.Body
	}
	if e.Status == 0 {
		return fmt.Sprintf("openai stream error: %s", msg)
	}
	return fmt.Sprintf("openai request failed: status=%d %s", e.Status, msg)
}

// Client performs HTTP requests to an OpenAI compatible API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	// streams are bounded by the caller's context instead of a client timeout
	streamClient *http.Client
}

// NewClient constructs a client. An empty baseURL targets api.openai.com.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	transport := otelhttp.NewTransport(http.DefaultTransport)
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 60 * time.Second, Transport: transport},
		streamClient: &http.Client{Transport: transport},
	}, nil
}

// CreateEmbedding returns one vector per input.
func (c *Client) CreateEmbedding(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	var out EmbeddingResponse
	resp, err := c.do(ctx, c.httpClient, "/embeddings", req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode embedding: %w", err)
	}
	return out, nil
}

// CreateChatCompletionStream starts a streaming call.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req ChatCompletionRequest) (Stream, error) {
	req.Stream = true
	resp, err := c.do(ctx, c.streamClient, "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4<<10), 1<<20)
	return &ChatCompletionStream{scanner: scanner, body: resp.Body}, nil
}

// do sends payload and returns the response when the status is 2xx.
func (c *Client) do(ctx context.Context, hc *http.Client, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if payloadStreams(payload) {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	if resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	apiErr := &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	var envelope struct {
		Error APIErrorDetail `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Detail = envelope.Error
	}
	return nil, apiErr
}

func payloadStreams(payload any) bool {
	req, ok := payload.(ChatCompletionRequest)
	return ok && req.Stream
}

// Stream defines the interface for streaming chat completions.
type Stream interface {
	Recv() (ChatCompletionStreamChunk, error)
	Close() error
}

// ChatCompletionStream reads `data:` frames from a streaming response.
type ChatCompletionStream struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	done    bool
}

// Recv returns the next chunk, io.EOF after [DONE], or io.ErrUnexpectedEOF
// when the connection ends without it.
func (s *ChatCompletionStream) Recv() (ChatCompletionStreamChunk, error) {
	if s.done {
		return ChatCompletionStreamChunk{}, io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "[DONE]" {
			s.done = true
			return ChatCompletionStreamChunk{}, io.EOF
		}
		var chunk ChatCompletionStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return ChatCompletionStreamChunk{}, fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return ChatCompletionStreamChunk{}, &APIError{Detail: *chunk.Error}
		}
		return chunk, nil
	}
	if err := s.scanner.Err(); err != nil {
		return ChatCompletionStreamChunk{}, err
	}
	return ChatCompletionStreamChunk{}, io.ErrUnexpectedEOF
}

// Close releases the connection. It is safe to call more than once.
func (s *ChatCompletionStream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}
