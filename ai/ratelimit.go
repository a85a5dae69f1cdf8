package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder holds every call to the wrapped Embedder behind a
// token bucket. A batch call costs one token.
type RateLimitedEmbedder struct {
	next    Embedder
	limiter *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder allows requestsPerSecond calls per second with the
// given burst.
func NewRateLimitedEmbedder(next Embedder, requestsPerSecond float64, burst int) (*RateLimitedEmbedder, error) {
	if next == nil {
		return nil, ErrEmbedderRequired
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}, nil
}

// EmbedText waits for a token, then embeds. Fails with the context's error
// if ctx ends first.
func (r *RateLimitedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.EmbedText(ctx, text)
}

// EmbedTexts waits for a single token, then embeds the batch.
func (r *RateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.EmbedTexts(ctx, texts)
}

// Decorate applies the rate limiter and cache that cfg asks for. The cache
// sits outermost so hits never wait on the limiter.
func Decorate(embedder Embedder, cfg *Config) (Embedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	var err error
	if cfg.RequestsPerSecond > 0 {
		embedder, err = NewRateLimitedEmbedder(embedder, cfg.RequestsPerSecond, cfg.Burst)
		if err != nil {
			return nil, err
		}
	}
	if cfg.CacheTTL > 0 {
		embedder, err = NewCachingEmbedder(embedder, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
	}
	return embedder, nil
}
