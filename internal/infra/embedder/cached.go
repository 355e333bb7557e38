package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache stores vectors by key.
type Cache interface {
	// GetMany returns one entry per key; missing keys yield nil.
	GetMany(ctx context.Context, keys []string) ([][]float32, error)
	SetMany(ctx context.Context, entries map[string][]float32, ttl time.Duration) error
}

// CachedEmbedder serves repeated texts from a cache and embeds the rest.
// Cache failures degrade to calling the wrapped embedder.
type CachedEmbedder struct {
	next      Embedder
	cache     Cache
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewCachedEmbedder wraps next. namespace separates vectors of different
// models sharing one cache.
func NewCachedEmbedder(next Embedder, cache Cache, namespace string, ttl time.Duration, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{
		next:      next,
		cache:     cache,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger.With("component", "embedder.cached"),
	}
}

// Embed implements Embedder.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = e.key(text)
	}
	out, err := e.cache.GetMany(ctx, keys)
	if err != nil || len(out) != len(texts) {
		if err != nil {
			e.logger.Warn("embedding cache read failed", "error", err)
		}
		out = make([][]float32, len(texts))
	}

	var (
		missIdx   []int
		missTexts []string
	)
	for i, vec := range out {
		if vec == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := e.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
	}
	entries := make(map[string][]float32, len(vectors))
	for j, i := range missIdx {
		out[i] = vectors[j]
		entries[keys[i]] = vectors[j]
	}
	if err := e.cache.SetMany(ctx, entries, e.ttl); err != nil {
		e.logger.Warn("embedding cache write failed", "error", err)
	}
	return out, nil
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.namespace + ":" + hex.EncodeToString(sum[:])
}

var _ Embedder = (*CachedEmbedder)(nil)

// ValkeyCache stores vectors as JSON strings under a key prefix.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "embedding:"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// GetMany implements Cache.
func (c *ValkeyCache) GetMany(ctx context.Context, keys []string) ([][]float32, error) {
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.prefix + key
	}
	values, err := c.client.Do(ctx, c.client.B().Mget().Key(full...).Build()).ToArray()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(keys))
	for i, value := range values {
		if i >= len(out) {
			break
		}
		payload, err := value.ToString()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				continue
			}
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal([]byte(payload), &vec); err != nil {
			// a corrupt entry is treated as a miss and overwritten
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// SetMany implements Cache.
func (c *ValkeyCache) SetMany(ctx context.Context, entries map[string][]float32, ttl time.Duration) error {
	cmds := make(valkey.Commands, 0, len(entries))
	for key, vec := range entries {
		payload, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		builder := c.client.B().Set().Key(c.prefix + key).Value(string(payload))
		if ttl > 0 {
			if ttl < time.Second {
				ttl = time.Second
			}
			cmds = append(cmds, builder.Ex(ttl).Build())
		} else {
			cmds = append(cmds, builder.Build())
		}
	}
	for _, resp := range c.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

var _ Cache = (*ValkeyCache)(nil)

// MemoryCache keeps vectors in process memory and ignores the TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemoryCache constructs an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

// GetMany implements Cache.
func (c *MemoryCache) GetMany(_ context.Context, keys []string) ([][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([][]float32, len(keys))
	for i, key := range keys {
		out[i] = c.entries[key]
	}
	return out, nil
}

// SetMany implements Cache.
func (c *MemoryCache) SetMany(_ context.Context, entries map[string][]float32, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, vec := range entries {
		c.entries[key] = vec
	}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
