package ai

import "errors"

var (
	// ErrEmbedderRequired is returned when a decorator is given a nil Embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmbeddingCount is returned when a batch call returns a different
	// number of vectors than texts.
	ErrEmbeddingCount = errors.New("embedding count does not match input count")
)
