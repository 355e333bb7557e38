package fooddata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/infra/embedder"
	"github.com/yanqian/ai-fitcoach/internal/infra/foodstore"
)

// Stats summarizes an ingestion run.
type Stats struct {
	Documents int `json:"documents"`
	Records   int `json:"records"`
	Ingested  int `json:"ingested"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Ingester processes raw records, embeds their search text in batches and
// upserts them into the food index.
type Ingester struct {
	source    Source
	embedder  embedder.Embedder
	index     foodstore.Index
	batchSize int
	logger    *slog.Logger
}

// NewIngester constructs an ingester. batchSize <= 0 uses 100.
func NewIngester(source Source, e embedder.Embedder, index foodstore.Index, batchSize int, logger *slog.Logger) *Ingester {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		source:    source,
		embedder:  e,
		index:     index,
		batchSize: batchSize,
		logger:    logger.With("component", "fooddata.ingester"),
	}
}

// Run ingests every document from the source. Malformed documents and
// records are counted and skipped; embedding or index failures abort.
func (in *Ingester) Run(ctx context.Context) (Stats, error) {
	var (
		stats   Stats
		pending []nutrition.Food
		seen    = make(map[string]struct{})
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		texts := make([]string, len(pending))
		for i, f := range pending {
			texts[i] = f.SearchText
		}
		vectors, err := in.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(pending) {
			return fmt.Errorf("embed batch: got %d vectors for %d foods", len(vectors), len(pending))
		}
		records := make([]foodstore.Record, len(pending))
		for i, f := range pending {
			records[i] = foodstore.Record{Food: f, Embedding: vectors[i]}
		}
		if err := in.index.Upsert(ctx, records); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		stats.Ingested += len(records)
		in.logger.Info("batch ingested", "size", len(records), "total", stats.Ingested)
		pending = pending[:0]
		return nil
	}

	err := in.source.Walk(ctx, func(doc Document) error {
		stats.Documents++
		raws, err := DecodeRecords(doc.Data)
		if err != nil {
			stats.Failed++
			in.logger.Warn("skip document", "name", doc.Name, "error", err)
			return nil
		}
		for _, raw := range raws {
			stats.Records++
			food, err := Process(raw)
			if err != nil {
				stats.Skipped++
				if !errors.Is(err, ErrNoCalories) {
					in.logger.Debug("skip record", "name", doc.Name, "fdcId", raw.FDCID, "error", err)
				}
				continue
			}
			if _, dup := seen[food.ID]; dup {
				stats.Skipped++
				continue
			}
			seen[food.ID] = struct{}{}
			pending = append(pending, food)
			if len(pending) >= in.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}
