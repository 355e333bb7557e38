package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DeterministicEmbedder avoids network calls by hashing words into buckets.
// Texts sharing words land close together, which keeps local search usable
// without an embeddings API.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder constructs the embedder.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 32
	}
	return &DeterministicEmbedder{dim: dim}
}

// Embed converts each text into a unit-length bag-of-words vector.
func (e *DeterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, e.dim)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, word := range words {
			hash := fnv.New64a()
			_, _ = hash.Write([]byte(word))
			seed := hash.Sum64()
			vector[seed%uint64(e.dim)] += 1
			// a second bucket with a sign reduces collisions between short vocabularies
			seed = seed*1099511628211 + 1469598103934665603
			if seed&1 == 0 {
				vector[seed%uint64(e.dim)] += 0.5
			} else {
				vector[seed%uint64(e.dim)] -= 0.5
			}
		}
		normalize(vector)
		vectors[i] = vector
	}
	return vectors, nil
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

var _ Embedder = (*DeterministicEmbedder)(nil)
