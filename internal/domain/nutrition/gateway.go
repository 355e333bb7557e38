package nutrition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
	apperrors "github.com/yanqian/ai-fitcoach/pkg/errors"
)

// DefaultTopK is the number of results requested per sub-query.
const DefaultTopK = 30

// RetrievalError reports that every sub-query of a retrieval failed.
type RetrievalError struct {
	Queries []string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("food retrieval failed for %d queries: %v", len(e.Queries), e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Gateway turns a profile into a deduplicated, restriction-filtered food list.
type Gateway struct {
	searcher Searcher
	catalog  Catalog
	topK     int
	logger   *slog.Logger
}

// NewGateway builds a Gateway. topK <= 0 uses DefaultTopK.
func NewGateway(searcher Searcher, catalog Catalog, topK int, logger *slog.Logger) *Gateway {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Gateway{searcher: searcher, catalog: catalog, topK: topK, logger: logger.With("component", "nutrition.gateway")}
}

// Retrieve issues the profile's sub-queries concurrently and merges the
// results in query order. Failed sub-queries are skipped; only a total
// failure returns a RetrievalError.
func (g *Gateway) Retrieve(ctx context.Context, p profile.Profile) ([]Food, error) {
	queries := BuildQueries(p)
	results := make([][]Match, len(queries))
	errs := make([]error, len(queries))

	var group errgroup.Group
	for i, query := range queries {
		group.Go(func() error {
			matches, err := g.searcher.Search(ctx, query, g.topK, nil)
			if err != nil {
				errs[i] = err
				return nil
			}
			sort.SliceStable(matches, func(a, b int) bool { return matches[a].Score > matches[b].Score })
			results[i] = matches
			return nil
		})
	}
	_ = group.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			g.logger.Warn("food sub-query failed", "query", queries[i], "error", err)
			failed = append(failed, err)
		}
	}
	if len(failed) == len(queries) {
		return nil, &RetrievalError{Queries: queries, Err: errors.Join(failed...)}
	}

	seen := make(map[string]struct{})
	var merged []Food
	for _, matches := range results {
		for _, m := range matches {
			if _, ok := seen[m.Food.ID]; ok {
				continue
			}
			seen[m.Food.ID] = struct{}{}
			merged = append(merged, m.Food)
		}
	}

	filtered := FilterByRestrictions(merged, p.DietaryRestrictions)
	g.logger.Debug("foods retrieved", "queries", len(queries), "failed", len(failed), "merged", len(merged), "kept", len(filtered))
	return filtered, nil
}

// LookupByFDCIDs returns stored foods in request order with a single exact
// lookup. Unknown ids are skipped.
func (g *Gateway) LookupByFDCIDs(ctx context.Context, ids []int) ([]Food, error) {
	if len(ids) == 0 {
		return []Food{}, nil
	}
	found, err := g.catalog.FoodsByFDCIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrieval, "failed to look up foods", err)
	}
	byID := make(map[int]Food, len(found))
	for _, f := range found {
		byID[f.FDCID] = f
	}
	foods := make([]Food, 0, len(ids))
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			continue
		}
		foods = append(foods, f)
		// repeated ids are returned once
		delete(byID, id)
	}
	g.logger.Debug("foods looked up", "requested", len(ids), "found", len(foods))
	return foods, nil
}
