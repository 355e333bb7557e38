package foodstore

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
)

// MemoryIndex keeps records in process memory and scans them linearly.
// Scores match PostgresIndex: 1/(1+L2 distance).
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
}

// NewMemoryIndex constructs an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]Record)}
}

// Upsert implements Index.
func (m *MemoryIndex) Upsert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		if _, exists := m.records[rec.Food.ID]; !exists {
			m.order = append(m.order, rec.Food.ID)
		}
		rec.Embedding = slices.Clone(rec.Embedding)
		m.records[rec.Food.ID] = rec
	}
	return nil
}

// Query implements Index.
func (m *MemoryIndex) Query(_ context.Context, embedding []float32, topK int, filter *nutrition.Filter) ([]nutrition.Match, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = nutrition.DefaultTopK
	}
	var allowed map[int]struct{}
	if filter != nil && len(filter.FDCIDs) > 0 {
		allowed = make(map[int]struct{}, len(filter.FDCIDs))
		for _, id := range filter.FDCIDs {
			allowed[id] = struct{}{}
		}
	}

	m.mu.RLock()
	matches := make([]nutrition.Match, 0, len(m.order))
	for _, id := range m.order {
		rec := m.records[id]
		if allowed != nil {
			if _, ok := allowed[rec.Food.FDCID]; !ok {
				continue
			}
		}
		matches = append(matches, nutrition.Match{
			Food:  rec.Food,
			Score: 1 / (1 + l2(embedding, rec.Embedding)),
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Lookup implements Index.
func (m *MemoryIndex) Lookup(_ context.Context, fdcIDs []int) ([]nutrition.Food, error) {
	if len(fdcIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[int]struct{}, len(fdcIDs))
	for _, id := range fdcIDs {
		wanted[id] = struct{}{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var foods []nutrition.Food
	for _, id := range m.order {
		rec := m.records[id]
		if _, ok := wanted[rec.Food.FDCID]; ok {
			foods = append(foods, rec.Food)
		}
	}
	return foods, nil
}

// Len returns the number of stored records.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func l2(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// dimensions present in only one vector count against the other's zero
	for _, x := range a[n:] {
		sum += float64(x) * float64(x)
	}
	for _, x := range b[n:] {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

var _ Index = (*MemoryIndex)(nil)
