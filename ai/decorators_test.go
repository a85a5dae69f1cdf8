package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder returns [len(text), 1] and records every text it embeds.
type countingEmbedder struct {
	mu       sync.Mutex
	embedded []string
	calls    int
	err      error
}

func (c *countingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	c.embedded = append(c.embedded, text)
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		c.embedded = append(c.embedded, text)
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestCachingEmbedder_EmbedText(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCachingEmbedder(inner, time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cached.EmbedText(ctx, "claim")
	require.NoError(t, err)
	first[0] = 99 // callers may mutate their copy

	second, err := cached.EmbedText(ctx, "claim")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, second)
	assert.Equal(t, 1, inner.calls)

	hits, misses := cached.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	cached.Flush()
	_, err = cached.EmbedText(ctx, "claim")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachingEmbedder_EmbedTextsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCachingEmbedder(inner, time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cached.EmbedText(ctx, "bb")
	require.NoError(t, err)

	vectors, err := cached.EmbedTexts(ctx, []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 1}, {3, 1}}, vectors)
	assert.Equal(t, []string{"bb", "a", "ccc"}, inner.embedded)

	_, err = cached.EmbedTexts(ctx, []string{"a", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "fully cached batch makes no call")
}

func TestCachingEmbedder_ErrorsNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("unavailable")}
	cached, err := NewCachingEmbedder(inner, time.Minute)
	require.NoError(t, err)

	_, err = cached.EmbedText(context.Background(), "claim")
	assert.Error(t, err)

	inner.err = nil
	v, err := cached.EmbedText(context.Background(), "claim")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, v)
}

func TestRateLimitedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	limited, err := NewRateLimitedEmbedder(inner, 1, 1)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = limited.EmbedText(ctx, "first")
	require.NoError(t, err)

	// The bucket is empty, and the next token is a second away.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = limited.EmbedTexts(short, []string{"second"})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestDecorate(t *testing.T) {
	inner := &countingEmbedder{}

	_, err := Decorate(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	plain, err := Decorate(inner, &Config{})
	require.NoError(t, err)
	assert.Same(t, inner, plain)

	both, err := Decorate(inner, &Config{RequestsPerSecond: 100, Burst: 10, CacheTTL: time.Minute})
	require.NoError(t, err)
	cached, ok := both.(*CachingEmbedder)
	require.True(t, ok, "cache is outermost")
	_, ok = cached.next.(*RateLimitedEmbedder)
	assert.True(t, ok)
}

func TestDecorators_RequireEmbedder(t *testing.T) {
	_, err := NewCachingEmbedder(nil, time.Minute)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewRateLimitedEmbedder(nil, 1, 1)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
