// Package index provides the nearest-neighbour index over fact embeddings.
package index

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/poiesic/factcheck/core"
)

// Metric identifies how similarity between two vectors is scored.
type Metric string

const (
	// MetricCosine normalizes vectors to unit length and scores by dot product.
	// Scores fall in [-1, 1].
	MetricCosine Metric = "cosine"
	// MetricDot scores by raw inner product.
	MetricDot Metric = "dot"
)

// ParseMetric converts a metric identifier into a Metric.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case MetricCosine, MetricDot:
		return Metric(name), nil
	case "":
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("%w: unknown metric %q", core.ErrInvalidArgument, name)
	}
}

// Hit is a search result: the position of the vector passed to Build and its score.
type Hit struct {
	Index int
	Score float32
}

// Flat is an exact brute-force index.
// Search results are deterministic for a fixed build. Build may run while
// searches are in flight; searches see either the old or the new vectors,
// never a mix.
type Flat struct {
	dimension int
	metric    Metric
	data      atomic.Pointer[flatData]
}

type flatData struct {
	vectors [][]float32
}

// NewFlat creates an unbuilt index for vectors of the given dimension.
func NewFlat(dimension int, metric Metric) (*Flat, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", core.ErrInvalidArgument, dimension)
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if metric == "" {
		metric = MetricCosine
	}
	return &Flat{dimension: dimension, metric: metric}, nil
}

// Dimension returns the configured vector dimension.
func (f *Flat) Dimension() int {
	return f.dimension
}

// Metric returns the configured similarity metric.
func (f *Flat) Metric() Metric {
	return f.metric
}

// Built reports whether Build has completed at least once.
func (f *Flat) Built() bool {
	return f.data.Load() != nil
}

// Len returns the number of indexed vectors, zero when unbuilt.
func (f *Flat) Len() int {
	data := f.data.Load()
	if data == nil {
		return 0
	}
	return len(data.vectors)
}

// Build replaces the indexed vectors.
// Vectors are copied; for the cosine metric they are normalized.
func (f *Flat) Build(vectors [][]float32) error {
	next := &flatData{vectors: make([][]float32, len(vectors))}
	for i, v := range vectors {
		if err := core.ValidateDimension(v, f.dimension); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
		next.vectors[i] = f.prepare(v)
	}
	f.data.Store(next)
	return nil
}

// Search returns up to k hits ordered by descending score.
// Ties are broken by ascending position.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", core.ErrInvalidArgument, k)
	}
	data := f.data.Load()
	if data == nil {
		return nil, core.ErrIndexNotBuilt
	}
	if err := core.ValidateDimension(query, f.dimension); err != nil {
		return nil, err
	}

	q := f.prepare(query)
	hits := make([]Hit, len(data.vectors))
	for i, v := range data.vectors {
		hits[i] = Hit{Index: i, Score: dotProduct(q, v)}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return a.Index - b.Index
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *Flat) prepare(v []float32) []float32 {
	if f.metric == MetricCosine {
		return NormalizeVector(v)
	}
	return slices.Clone(v)
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	// Can't normalize zero vector
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// dotProduct calculates the dot product of two equal-length vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
