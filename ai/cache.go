package ai

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachingEmbedder remembers embeddings by exact text for a fixed TTL.
type CachingEmbedder struct {
	next   Embedder
	cache  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

var _ Embedder = (*CachingEmbedder)(nil)

// NewCachingEmbedder wraps next with a cache whose entries expire after ttl.
func NewCachingEmbedder(next Embedder, ttl time.Duration) (*CachingEmbedder, error) {
	if next == nil {
		return nil, ErrEmbedderRequired
	}
	return &CachingEmbedder{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}, nil
}

// EmbedText returns the cached vector for text or embeds and caches it.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.get(text); ok {
		return v, nil
	}
	v, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(text, slices.Clone(v))
	return v, nil
}

// EmbedTexts embeds only the texts that are not cached, in one batch call.
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var positions []int
	for i, text := range texts {
		if v, ok := c.get(text); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		positions = append(positions, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.next.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("%w: got %d for %d texts", ErrEmbeddingCount, len(vectors), len(missing))
	}
	for j, v := range vectors {
		out[positions[j]] = v
		c.cache.SetDefault(missing[j], slices.Clone(v))
	}
	return out, nil
}

func (c *CachingEmbedder) get(text string) ([]float32, bool) {
	cached, ok := c.cache.Get(text)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return slices.Clone(cached.([]float32)), true
}

// Stats returns cache hit and miss counts.
func (c *CachingEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Flush drops every cached embedding. Call it when the model changes.
func (c *CachingEmbedder) Flush() {
	c.cache.Flush()
}
