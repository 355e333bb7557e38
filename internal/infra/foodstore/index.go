package foodstore

import (
	"context"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
)

// Record is a food with its search text embedding.
type Record struct {
	Food      nutrition.Food
	Embedding []float32
}

// Index stores food records and answers nearest-neighbour and exact id queries.
type Index interface {
	Upsert(ctx context.Context, records []Record) error
	Lookup(ctx context.Context, fdcIDs []int) ([]nutrition.Food, error)
	Query(ctx context.Context, embedding []float32, topK int, filter *nutrition.Filter) ([]nutrition.Match, error)
}
