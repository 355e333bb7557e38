package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/ai-fitcoach/internal/domain/chat"
	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/persona"
	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/infra/config"
	"github.com/yanqian/ai-fitcoach/internal/infra/embedder"
	"github.com/yanqian/ai-fitcoach/internal/infra/foodstore"
	"github.com/yanqian/ai-fitcoach/internal/infra/llm/chatgpt"
	"github.com/yanqian/ai-fitcoach/internal/infra/llm/provider"
	"github.com/yanqian/ai-fitcoach/internal/infra/personastore"
	"github.com/yanqian/ai-fitcoach/internal/infra/telemetry"
	"github.com/yanqian/ai-fitcoach/pkg/metrics"
)

func providePlanConfig(cfg *config.Config) plan.Config {
	p := cfg.Plan.Pacing
	return plan.Config{
		Temperature:       cfg.Plan.Temperature,
		MaxTokens:         cfg.Plan.MaxTokens,
		GenerationTimeout: cfg.Plan.GenerationTimeout,
		MaxPromptFoods:    cfg.Plan.MaxPromptFoods,
		FoodTokenBudget:   cfg.Plan.FoodTokenBudget,
		Pacing: plan.Pacing{
			Header:    p.Header,
			Item:      p.Item,
			Complete:  p.Complete,
			PreOutro:  p.PreOutro,
			OutroChar: p.OutroChar,
		},
	}
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		MaxMessages: cfg.Chat.MaxMessages,
		Timeout:     cfg.Chat.GenerationTimeout,
	}
}

func providePacer(cfg *config.Config) plan.Pacer {
	if cfg.Plan.Pacing.Disabled {
		return plan.NoopPacer{}
	}
	return plan.SleepPacer{}
}

func provideTokenCounter(cfg *config.Config) *metrics.TokenCounter {
	if cfg.LLM.Provider == config.ProviderAnthropic {
		return metrics.NewTokenCounter(cfg.LLM.Anthropic.Model)
	}
	return metrics.NewTokenCounter(cfg.LLM.Model)
}

func provideCompletionProvider(cfg *config.Config, logger *slog.Logger) plan.CompletionProvider {
	return provider.FromConfig(cfg.LLM, logger)
}

func providePromptResolver(svc persona.Service) plan.PromptResolver {
	return svc
}

func provideEmbedder(cfg *config.Config, logger *slog.Logger) embedder.Embedder {
	var (
		base      embedder.Embedder
		namespace string
	)
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		logger.Warn("openai api key not set, using deterministic embeddings", "dimensions", cfg.Foods.Dimensions)
		base = embedder.NewDeterministicEmbedder(cfg.Foods.Dimensions)
		namespace = "deterministic"
	} else {
		base = embedder.NewChatGPTEmbedder(client, cfg.LLM.EmbeddingModel, cfg.Ingest.BatchSize, logger)
		namespace = cfg.LLM.EmbeddingModel
	}

	cache := cfg.Foods.EmbeddingCache
	if !cache.Enabled {
		return base
	}
	vc, err := newValkeyClient(cache.Addr, logger)
	if err != nil {
		logger.Error("embedding cache unavailable, continuing without it", "error", err)
		return base
	}
	logger.Info("embedding cache enabled", "addr", cache.Addr)
	return embedder.NewCachedEmbedder(base, embedder.NewValkeyCache(vc, cache.KeyPrefix), namespace, cfg.Foods.CacheTTL, logger)
}

func provideFoodIndex(cfg *config.Config, logger *slog.Logger) foodstore.Index {
	fallback := foodstore.NewMemoryIndex()
	pool, err := newPostgresPool(cfg.Foods.Postgres, logger)
	if err != nil || pool == nil {
		logger.Warn("food index running in memory; run the ingest command against postgres for real food data")
		return fallback
	}
	logger.Info("food postgres index enabled")
	return foodstore.NewPostgresIndex(pool, cfg.Foods.Dimensions)
}

func provideFoodSearcher(e embedder.Embedder, index foodstore.Index) *foodstore.Searcher {
	return foodstore.NewSearcher(e, index)
}

func provideNutritionGateway(cfg *config.Config, searcher nutrition.Searcher, catalog nutrition.Catalog, logger *slog.Logger) *nutrition.Gateway {
	return nutrition.NewGateway(searcher, catalog, cfg.Plan.FoodsPerQuery, logger)
}

func providePersonaStore(cfg *config.Config, logger *slog.Logger) persona.Store {
	vcfg := cfg.Personas.Valkey
	if !vcfg.Enabled {
		return personastore.NewMemoryStore()
	}
	client, err := newValkeyClient(vcfg.Addr, logger)
	if err != nil {
		logger.Error("persona valkey store unavailable, falling back to memory store", "error", err)
		return personastore.NewMemoryStore()
	}
	logger.Info("persona valkey store enabled", "addr", vcfg.Addr)
	return personastore.NewValkeyStore(client, vcfg.KeyPrefix)
}

func provideTracer(cfg *config.Config, logger *slog.Logger) (telemetry.Shutdown, error) {
	return telemetry.InitTracer(cfg.HTTP.Tracing.Enabled, cfg.HTTP.Tracing.ServiceName, os.Stdout, logger)
}

// newPostgresPool returns nil without error when no DSN is configured.
func newPostgresPool(pgCfg config.PostgresConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	dsn := strings.TrimSpace(pgCfg.DSN)
	if dsn == "" {
		return nil, nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn", "error", err)
		return nil, err
	}
	if pgCfg.MaxConns > 0 {
		poolConfig.MaxConns = pgCfg.MaxConns
	}
	if pgCfg.MinConns > 0 {
		poolConfig.MinConns = pgCfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool", "error", err)
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed", "error", err)
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func newValkeyClient(addr string, logger *slog.Logger) (valkey.Client, error) {
	opt, err := buildValkeyOptions(addr)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	logger.Debug("valkey connected", "addr", addr)
	return client, nil
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
