package provider

import (
	"log/slog"
	"strings"

	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/infra/config"
	"github.com/yanqian/ai-fitcoach/internal/infra/llm/anthropic"
	"github.com/yanqian/ai-fitcoach/internal/infra/llm/chatgpt"
)

// FromConfig builds the configured completion provider. It returns nil when
// credentials are missing so requests can report a configuration error while
// the rest of the service keeps working.
func FromConfig(cfg config.LLMConfig, logger *slog.Logger) plan.CompletionProvider {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm.provider")

	switch cfg.Provider {
	case config.ProviderAnthropic:
		if strings.TrimSpace(cfg.Anthropic.APIKey) == "" {
			logger.Warn("anthropic api key missing; plan and chat streaming disabled")
			return nil
		}
		client, err := anthropic.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL, cfg.Anthropic.Version)
		if err != nil {
			logger.Error("init anthropic client", "error", err)
			return nil
		}
		return NewAnthropic(client, cfg.Anthropic.Model)
	default:
		if strings.TrimSpace(cfg.APIKey) == "" {
			logger.Warn("openai api key missing; plan and chat streaming disabled")
			return nil
		}
		client, err := chatgpt.NewClient(cfg.APIKey, cfg.BaseURL)
		if err != nil {
			logger.Error("init chatgpt client", "error", err)
			return nil
		}
		return NewOpenAI(client, cfg.Model)
	}
}
