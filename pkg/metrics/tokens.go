package metrics

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter counts tokens with the tiktoken encoding of a model. When the
// encoding cannot be loaded (offline hosts) it falls back to EstimateTokens.
type TokenCounter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter builds a counter for the given model name.
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: strings.TrimSpace(model)}
}

// NewEstimatingCounter returns a counter that never loads an encoding.
func NewEstimatingCounter() *TokenCounter {
	c := &TokenCounter{}
	c.once.Do(func() {})
	return c
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil {
		return EstimateTokens(text)
	}
	c.once.Do(c.load)
	if c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// PromptUsage reports usage for a set of prompt messages.
func (c *TokenCounter) PromptUsage(parts ...string) TokenUsage {
	total := 0
	for _, part := range parts {
		total += c.Count(part)
	}
	return TokenUsage{PromptTokens: total, TotalTokens: total}
}

// CompletionUsage reports usage for generated text.
func (c *TokenCounter) CompletionUsage(text string) TokenUsage {
	n := c.Count(text)
	return TokenUsage{CompletionTokens: n, TotalTokens: n}
}

func (c *TokenCounter) load() {
	if c.model != "" {
		if enc, err := tiktoken.EncodingForModel(c.model); err == nil {
			c.enc = enc
			return
		}
	}
	if enc, err := tiktoken.GetEncoding(fallbackEncoding); err == nil {
		c.enc = enc
	}
}

// EstimateTokens provides a rough, upper-biased token count without an encoding.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}
