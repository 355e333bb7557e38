package anthropic

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultVersion = "2023-06-01"
)

// Message is a Messages API conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesRequest is the payload for POST /v1/messages.
type MessagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// StreamEvent is one server-sent event of a streaming response.
type StreamEvent struct {
	Type  string          `json:"type"`
	Delta *ContentDelta   `json:"delta,omitempty"`
	Error *APIErrorDetail `json:"error,omitempty"`
}

// ContentDelta carries incremental text for content_block_delta events.
type ContentDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// APIErrorDetail is the error body of a failed request or an error event.
type APIErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// APIError reports an error returned by the API.
type APIError struct {
	Status int
	Detail APIErrorDetail
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("anthropic api error: status=%d type=%s message=%s", e.Status, e.Detail.Type, e.Detail.Message)
	}
	return fmt.Sprintf("anthropic stream error: type=%s message=%s", e.Detail.Type, e.Detail.Message)
}

// Client calls the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	version    string
	httpClient *http.Client
}

// NewClient constructs a client. Empty baseURL and version use the defaults.
func NewClient(apiKey, baseURL, version string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(version) == "" {
		version = defaultVersion
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}, nil
}

// StreamMessages opens a streaming messages request.
func (c *Client) StreamMessages(ctx context.Context, req MessagesRequest) (*MessageStream, error) {
	req.Stream = true
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode messages request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build messages request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request messages stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error APIErrorDetail `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Detail = envelope.Error
		} else {
			apiErr.Detail = APIErrorDetail{Type: "http_error", Message: string(body)}
		}
		return nil, apiErr
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &MessageStream{scanner: scanner, closer: resp.Body}, nil
}

// MessageStream reads text deltas from a streaming response.
type MessageStream struct {
	scanner *bufio.Scanner
	closer  io.Closer
	done    bool
}

// Recv returns the next text delta, or io.EOF after message_stop.
func (s *MessageStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// event: lines repeat the type that is also inside data.
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var ev StreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			s.Close()
			return "", fmt.Errorf("decode stream event: %w", err)
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta != nil && ev.Delta.Type == "text_delta" {
				return ev.Delta.Text, nil
			}
		case "message_stop":
			s.Close()
			return "", io.EOF
		case "error":
			s.Close()
			detail := APIErrorDetail{Type: "stream_error"}
			if ev.Error != nil {
				detail = *ev.Error
			}
			return "", &APIError{Detail: detail}
		}
	}
	s.Close()
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}

// Close releases the response body.
func (s *MessageStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.closer.Close()
}
