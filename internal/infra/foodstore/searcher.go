package foodstore

import (
	"context"
	"fmt"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/infra/embedder"
)

// Searcher embeds a query and runs it against an Index.
type Searcher struct {
	embedder embedder.Embedder
	index    Index
}

// NewSearcher constructs the searcher.
func NewSearcher(e embedder.Embedder, index Index) *Searcher {
	return &Searcher{embedder: e, index: index}
}

// Search implements nutrition.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, topK int, filter *nutrition.Filter) ([]nutrition.Match, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	return s.index.Query(ctx, vectors[0], topK, filter)
}

// FoodsByFDCIDs implements nutrition.Catalog without embedding anything.
func (s *Searcher) FoodsByFDCIDs(ctx context.Context, ids []int) ([]nutrition.Food, error) {
	return s.index.Lookup(ctx, ids)
}

var (
	_ nutrition.Searcher = (*Searcher)(nil)
	_ nutrition.Catalog  = (*Searcher)(nil)
)
