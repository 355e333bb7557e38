package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	require.Equal(t, 100*time.Millisecond, cfg.Plan.Pacing.Header)
	require.Contains(t, cfg.HTTP.Retry.Exclude, "/api/v1/plans/stream")
	require.Equal(t, 2*time.Minute, cfg.Chat.GenerationTimeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9000"
llm:
  provider: openai
plan:
  maxPromptFoods: 50
  pacing:
    outroChar: 5ms
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("PLAN_MAX_PROMPT_FOODS", "75")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PERSONAS_VALKEY_ENABLED", "true")
	t.Setenv("PERSONAS_VALKEY_ADDR", "cache:6379")
	t.Setenv("CHAT_GENERATION_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTP.Address)
	require.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.Equal(t, 75, cfg.Plan.MaxPromptFoods)
	require.Equal(t, 5*time.Millisecond, cfg.Plan.Pacing.OutroChar)
	require.Equal(t, 150*time.Millisecond, cfg.Plan.Pacing.Item)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.True(t, cfg.Personas.Valkey.Enabled)
	require.Equal(t, "cache:6379", cfg.Personas.Valkey.Addr)
	require.Equal(t, 45*time.Second, cfg.Chat.GenerationTimeout)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "provider", mutate: func(c *Config) { c.LLM.Provider = "gemini" }, want: "llm.provider"},
		{name: "negative pacing", mutate: func(c *Config) { c.Plan.Pacing.Item = -time.Millisecond }, want: "plan.pacing"},
		{name: "prompt foods", mutate: func(c *Config) { c.Plan.MaxPromptFoods = 0 }, want: "plan.maxPromptFoods"},
		{name: "persona valkey addr", mutate: func(c *Config) { c.Personas.Valkey.Enabled = true }, want: "personas.valkey.addr"},
		{name: "cache addr", mutate: func(c *Config) { c.Foods.EmbeddingCache.Enabled = true }, want: "foods.embeddingCache.addr"},
		{name: "chat timeout", mutate: func(c *Config) { c.Chat.GenerationTimeout = -time.Second }, want: "chat.generationTimeout"},
		{name: "rate limit", mutate: func(c *Config) { c.HTTP.RateLimit.Burst = 0 }, want: "http.rateLimit.burst"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
