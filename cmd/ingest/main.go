// Command ingest loads FoodData Central records into the food vector index.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/yanqian/ai-fitcoach/internal/infra/config"
	"github.com/yanqian/ai-fitcoach/internal/infra/embedder"
	"github.com/yanqian/ai-fitcoach/internal/infra/fooddata"
	"github.com/yanqian/ai-fitcoach/internal/infra/foodstore"
	"github.com/yanqian/ai-fitcoach/internal/infra/llm/chatgpt"
	"github.com/yanqian/ai-fitcoach/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	dir          string
	fromBucket   bool
	batchSize    int
	ensureSchema bool
	dryRun       bool
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed FoodData Central records into the food index",
		Long: `Reads FoodData Central JSON exports from a local directory or an
S3-compatible bucket, derives per-100g nutrition and dietary tags, embeds
each food's search text and upserts it into the Postgres vector index.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "Directory of FDC JSON files (defaults to ingest.sourceDir)")
	cmd.Flags().BoolVar(&opts.fromBucket, "bucket", false, "Read from the configured ingest bucket instead of a directory")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Records per embedding batch (defaults to ingest.batchSize)")
	cmd.Flags().BoolVar(&opts.ensureSchema, "ensure-schema", true, "Create the vector extension, table and index when missing")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and embed into an in-memory index without touching Postgres")

	return cmd
}

func run(parent context.Context, opts options) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New().With("component", "cmd.ingest")

	source, err := buildSource(cfg, opts, log)
	if err != nil {
		return err
	}

	var index foodstore.Index
	if opts.dryRun {
		index = foodstore.NewMemoryIndex()
	} else {
		pool, err := openPool(ctx, cfg.Foods.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		pg := foodstore.NewPostgresIndex(pool, cfg.Foods.Dimensions)
		if opts.ensureSchema {
			if err := pg.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		index = pg
	}

	batchSize := opts.batchSize
	if batchSize <= 0 {
		batchSize = cfg.Ingest.BatchSize
	}
	ingester := fooddata.NewIngester(source, buildEmbedder(cfg, batchSize, log), index, batchSize, log)

	started := time.Now()
	stats, err := ingester.Run(ctx)
	log.Info("ingestion finished",
		"documents", stats.Documents,
		"records", stats.Records,
		"ingested", stats.Ingested,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return err
}

func buildSource(cfg *config.Config, opts options, log *slog.Logger) (fooddata.Source, error) {
	if opts.fromBucket {
		b := cfg.Ingest.Bucket
		return fooddata.NewBucketSource(fooddata.BucketOptions{
			Endpoint:        b.Endpoint,
			AccessKeyID:     b.AccessKeyID,
			SecretAccessKey: b.SecretAccessKey,
			Bucket:          b.Bucket,
			Prefix:          b.Prefix,
			Region:          b.Region,
			UseSSL:          b.UseSSL,
		}, log)
	}
	dir := strings.TrimSpace(opts.dir)
	if dir == "" {
		dir = cfg.Ingest.SourceDir
	}
	if dir == "" {
		return nil, errors.New("no source: pass --dir, set ingest.sourceDir or use --bucket")
	}
	return fooddata.NewDirSource(dir), nil
}

// buildEmbedder must match the server's embedder choice, otherwise stored
// vectors and query vectors live in different spaces.
func buildEmbedder(cfg *config.Config, batchSize int, log *slog.Logger) embedder.Embedder {
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		log.Warn("openai api key not set, using deterministic embeddings", "dimensions", cfg.Foods.Dimensions)
		return embedder.NewDeterministicEmbedder(cfg.Foods.Dimensions)
	}
	return embedder.NewChatGPTEmbedder(client, cfg.LLM.EmbeddingModel, batchSize, log)
}

func openPool(ctx context.Context, pgCfg config.PostgresConfig) (*pgxpool.Pool, error) {
	dsn := strings.TrimSpace(pgCfg.DSN)
	if dsn == "" {
		return nil, errors.New("foods.postgres.dsn is required (or use --dry-run)")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if pgCfg.MaxConns > 0 {
		poolConfig.MaxConns = pgCfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
