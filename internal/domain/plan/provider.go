package plan

import (
	"context"
	"errors"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
)

// CompletionRequest is a single streaming completion call.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	Temperature  float32
	MaxTokens    int
}

// FragmentStream yields text fragments in order. Next returns io.EOF after
// the last fragment.
type FragmentStream interface {
	Next() (string, error)
	Close() error
}

// CompletionProvider opens streaming completions against a language model.
type CompletionProvider interface {
	Stream(ctx context.Context, req CompletionRequest) (FragmentStream, error)
}

// ErrProviderNotConfigured is returned when no provider credentials are set.
var ErrProviderNotConfigured = errors.New("completion provider not configured")

// PromptResolver turns a persona id into its system prompt.
type PromptResolver interface {
	SystemPrompt(ctx context.Context, personaID string) (string, error)
}

// FoodRetriever returns candidate foods for a profile.
type FoodRetriever interface {
	Retrieve(ctx context.Context, p profile.Profile) ([]nutrition.Food, error)
}
