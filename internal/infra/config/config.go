package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Plan     PlanConfig     `yaml:"plan"`
	Chat     ChatConfig     `yaml:"chat"`
	Foods    FoodsConfig    `yaml:"foods"`
	Personas PersonasConfig `yaml:"personas"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
	Tracing        TracingConfig   `yaml:"tracing"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// TracingConfig toggles OpenTelemetry spans written to stdout.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// LLMConfig selects and configures the completion provider. OpenAI settings
// are also used for embeddings.
type LLMConfig struct {
	Provider       string          `yaml:"provider"`
	APIKey         string          `yaml:"apiKey"`
	BaseURL        string          `yaml:"baseUrl"`
	Model          string          `yaml:"model"`
	EmbeddingModel string          `yaml:"embeddingModel"`
	Anthropic      AnthropicConfig `yaml:"anthropic"`
}

// AnthropicConfig contains Messages API settings.
type AnthropicConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	Version string `yaml:"version"`
}

// PlanConfig tunes plan generation.
type PlanConfig struct {
	Temperature       float32       `yaml:"temperature"`
	MaxTokens         int           `yaml:"maxTokens"`
	GenerationTimeout time.Duration `yaml:"generationTimeout"`
	FoodsPerQuery     int           `yaml:"foodsPerQuery"`
	MaxPromptFoods    int           `yaml:"maxPromptFoods"`
	FoodTokenBudget   int           `yaml:"foodTokenBudget"`
	Pacing            PacingConfig  `yaml:"pacing"`
}

// PacingConfig holds the pauses between progressive card events.
type PacingConfig struct {
	Disabled  bool          `yaml:"disabled"`
	Header    time.Duration `yaml:"header"`
	Item      time.Duration `yaml:"item"`
	Complete  time.Duration `yaml:"complete"`
	PreOutro  time.Duration `yaml:"preOutro"`
	OutroChar time.Duration `yaml:"outroChar"`
}

// ChatConfig tunes persona chat.
type ChatConfig struct {
	Temperature       float32       `yaml:"temperature"`
	MaxTokens         int           `yaml:"maxTokens"`
	MaxMessages       int           `yaml:"maxMessages"`
	GenerationTimeout time.Duration `yaml:"generationTimeout"`
}

// FoodsConfig locates the food vector index and the query embedding cache.
type FoodsConfig struct {
	Postgres       PostgresConfig `yaml:"postgres"`
	Dimensions     int            `yaml:"dimensions"`
	EmbeddingCache ValkeyConfig   `yaml:"embeddingCache"`
	CacheTTL       time.Duration  `yaml:"cacheTtl"`
}

// PersonasConfig locates the custom persona store.
type PersonasConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for a Valkey/Redis server.
type ValkeyConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// IngestConfig drives the food ingestion CLI.
type IngestConfig struct {
	SourceDir string       `yaml:"sourceDir"`
	BatchSize int          `yaml:"batchSize"`
	Bucket    BucketConfig `yaml:"bucket"`
}

// BucketConfig points at an S3 compatible bucket holding raw FDC files.
type BucketConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"useSsl"`
}

// Load reads configuration from defaults, an optional .env file, a YAML file
// and environment variables, in that order.
func Load() (*Config, error) {
	cfg := defaultConfig()

	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")
	setBool(&cfg.HTTP.Tracing.Enabled, "HTTP_TRACING_ENABLED")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setString(&cfg.LLM.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.LLM.Anthropic.BaseURL, "ANTHROPIC_BASE_URL")
	setString(&cfg.LLM.Anthropic.Model, "ANTHROPIC_MODEL")

	setFloat32(&cfg.Plan.Temperature, "PLAN_TEMPERATURE")
	setInt(&cfg.Plan.MaxTokens, "PLAN_MAX_TOKENS")
	setDuration(&cfg.Plan.GenerationTimeout, "PLAN_GENERATION_TIMEOUT")
	setInt(&cfg.Plan.FoodsPerQuery, "PLAN_FOODS_PER_QUERY")
	setInt(&cfg.Plan.MaxPromptFoods, "PLAN_MAX_PROMPT_FOODS")
	setInt(&cfg.Plan.FoodTokenBudget, "PLAN_FOOD_TOKEN_BUDGET")
	setBool(&cfg.Plan.Pacing.Disabled, "PLAN_PACING_DISABLED")

	setFloat32(&cfg.Chat.Temperature, "CHAT_TEMPERATURE")
	setInt(&cfg.Chat.MaxTokens, "CHAT_MAX_TOKENS")
	setDuration(&cfg.Chat.GenerationTimeout, "CHAT_GENERATION_TIMEOUT")

	setString(&cfg.Foods.Postgres.DSN, "FOODS_POSTGRES_DSN")
	setInt32(&cfg.Foods.Postgres.MaxConns, "FOODS_POSTGRES_MAX_CONNS")
	setInt32(&cfg.Foods.Postgres.MinConns, "FOODS_POSTGRES_MIN_CONNS")
	setBool(&cfg.Foods.EmbeddingCache.Enabled, "FOODS_CACHE_ENABLED")
	setString(&cfg.Foods.EmbeddingCache.Addr, "FOODS_CACHE_ADDR")
	setDuration(&cfg.Foods.CacheTTL, "FOODS_CACHE_TTL")

	setBool(&cfg.Personas.Valkey.Enabled, "PERSONAS_VALKEY_ENABLED")
	setString(&cfg.Personas.Valkey.Addr, "PERSONAS_VALKEY_ADDR")

	setString(&cfg.Ingest.SourceDir, "INGEST_SOURCE_DIR")
	setInt(&cfg.Ingest.BatchSize, "INGEST_BATCH_SIZE")
	setString(&cfg.Ingest.Bucket.Endpoint, "INGEST_BUCKET_ENDPOINT")
	setString(&cfg.Ingest.Bucket.AccessKeyID, "INGEST_BUCKET_ACCESS_KEY_ID")
	setString(&cfg.Ingest.Bucket.SecretAccessKey, "INGEST_BUCKET_SECRET_ACCESS_KEY")
	setString(&cfg.Ingest.Bucket.Bucket, "INGEST_BUCKET_NAME")
	setString(&cfg.Ingest.Bucket.Prefix, "INGEST_BUCKET_PREFIX")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(parsed)
		}
	}
}

func setFloat32(dst *float32, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(parsed)
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute,
			AllowedOrigins: []string{
				"http://localhost:3000",
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/plans/stream",
					"/api/v1/chat/stream",
					"/api/v1/personas",
				},
			},
			Tracing: TracingConfig{
				ServiceName: "fitcoach",
			},
		},
		LLM: LLMConfig{
			Provider:       ProviderAnthropic,
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Anthropic: AnthropicConfig{
				BaseURL: "https://api.anthropic.com",
				Model:   "claude-haiku-4-5",
				Version: "2023-06-01",
			},
		},
		Plan: PlanConfig{
			Temperature:       0.7,
			MaxTokens:         8000,
			GenerationTimeout: 3 * time.Minute,
			FoodsPerQuery:     30,
			MaxPromptFoods:    150,
			FoodTokenBudget:   12000,
			Pacing: PacingConfig{
				Header:    100 * time.Millisecond,
				Item:      150 * time.Millisecond,
				Complete:  100 * time.Millisecond,
				PreOutro:  300 * time.Millisecond,
				OutroChar: 20 * time.Millisecond,
			},
		},
		Chat: ChatConfig{
			Temperature:       0.8,
			MaxTokens:         4000,
			MaxMessages:       40,
			GenerationTimeout: 2 * time.Minute,
		},
		Foods: FoodsConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			Dimensions: 1536,
			EmbeddingCache: ValkeyConfig{
				KeyPrefix: "fitcoach:embedding:",
			},
			CacheTTL: 24 * time.Hour,
		},
		Personas: PersonasConfig{
			Valkey: ValkeyConfig{
				KeyPrefix: "fitcoach:personas",
			},
		},
		Ingest: IngestConfig{
			SourceDir: "data/fdc",
			BatchSize: 100,
			Bucket: BucketConfig{
				UseSSL: true,
			},
		},
	}
}

// Validate ensures the configuration is safe to use. Missing provider
// credentials are not an error here; requests report them instead.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("llm.provider must be %q or %q", ProviderOpenAI, ProviderAnthropic)
	}
	if strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty")
	}
	if c.Plan.MaxTokens <= 0 {
		return errors.New("plan.maxTokens must be positive")
	}
	if c.Plan.GenerationTimeout < 0 {
		return errors.New("plan.generationTimeout cannot be negative")
	}
	if c.Plan.FoodsPerQuery <= 0 {
		return errors.New("plan.foodsPerQuery must be positive")
	}
	if c.Plan.MaxPromptFoods <= 0 {
		return errors.New("plan.maxPromptFoods must be positive")
	}
	if c.Plan.FoodTokenBudget < 0 {
		return errors.New("plan.foodTokenBudget cannot be negative")
	}
	p := c.Plan.Pacing
	if p.Header < 0 || p.Item < 0 || p.Complete < 0 || p.PreOutro < 0 || p.OutroChar < 0 {
		return errors.New("plan.pacing delays cannot be negative")
	}
	if c.Chat.MaxTokens <= 0 {
		return errors.New("chat.maxTokens must be positive")
	}
	if c.Chat.GenerationTimeout < 0 {
		return errors.New("chat.generationTimeout cannot be negative")
	}
	if c.Foods.Dimensions <= 0 {
		return errors.New("foods.dimensions must be positive")
	}
	if c.Foods.CacheTTL < 0 {
		return errors.New("foods.cacheTtl cannot be negative")
	}
	if c.Foods.EmbeddingCache.Enabled && strings.TrimSpace(c.Foods.EmbeddingCache.Addr) == "" {
		return errors.New("foods.embeddingCache.addr cannot be empty when the cache is enabled")
	}
	if c.Personas.Valkey.Enabled && strings.TrimSpace(c.Personas.Valkey.Addr) == "" {
		return errors.New("personas.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Ingest.BatchSize <= 0 {
		return errors.New("ingest.batchSize must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
