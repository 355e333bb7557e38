package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "runes dominate", text: "abcdef", want: 3},
		{name: "words dominate", text: "a b c d e", want: 5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestEstimatingCounterPromptUsage(t *testing.T) {
	counter := NewEstimatingCounter()
	usage := counter.PromptUsage("abcd", "ef", "")
	require.Equal(t, TokenUsage{PromptTokens: 3, TotalTokens: 3}, usage)
	require.False(t, usage.IsZero())
}

func TestNilCounterFallsBack(t *testing.T) {
	var counter *TokenCounter
	require.Equal(t, 2, counter.Count("abcd"))
}

func TestTokenUsageAdd(t *testing.T) {
	sum := TokenUsage{PromptTokens: 1, TotalTokens: 1}.Add(TokenUsage{CompletionTokens: 2, TotalTokens: 2})
	require.Equal(t, TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}, sum)
	require.True(t, TokenUsage{}.IsZero())
}

func TestCompletionUsage(t *testing.T) {
	usage := NewEstimatingCounter().CompletionUsage("abcdef")
	require.Equal(t, TokenUsage{CompletionTokens: 3, TotalTokens: 3}, usage)
	require.True(t, NewEstimatingCounter().CompletionUsage("").IsZero())
}
