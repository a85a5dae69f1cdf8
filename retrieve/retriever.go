package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/factcheck/ai"
	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/corpus"
)

// DefaultEmbedTimeout bounds the claim embedding call.
const DefaultEmbedTimeout = 10 * time.Second

// Retriever finds the facts closest to a claim and reconciles their numbers.
// It is safe for concurrent use; each call reads whichever snapshot is
// current when it starts.
type Retriever struct {
	source       corpus.Source
	embedder     ai.Embedder
	tolerance    Tolerance
	relevance    float64
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTolerance sets the exact and wide relative tolerances.
func WithTolerance(tol Tolerance) Option {
	return func(r *Retriever) error {
		if !tol.Valid() {
			return fmt.Errorf("%w: exact %g, wide %g", ErrInvalidTolerance, tol.Exact, tol.Wide)
		}
		r.tolerance = tol
		return nil
	}
}

// WithRelevance sets the semantic score below which candidates rank after
// every relevant one regardless of numeric agreement. Use the verdict
// engine's semantic threshold.
// Default is DefaultRelevance.
func WithRelevance(threshold float64) Option {
	return func(r *Retriever) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: relevance %g outside [0,1]", core.ErrInvalidArgument, threshold)
		}
		r.relevance = threshold
		return nil
	}
}

// WithEmbedTimeout bounds each claim embedding call. Zero or negative
// leaves only the caller's context in charge.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(r *Retriever) error {
		r.embedTimeout = timeout
		return nil
	}
}

// New creates a Retriever reading snapshots from source.
func New(source corpus.Source, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		source:       source,
		embedder:     embedder,
		tolerance:    DefaultTolerance(),
		relevance:    DefaultRelevance,
		embedTimeout: DefaultEmbedTimeout,
		logger:       slog.Default().With("component", "retriever"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Tolerance returns the configured numeric tolerances.
func (r *Retriever) Tolerance() Tolerance {
	return r.tolerance
}

// Retrieve returns up to k candidates for claim. Relevant candidates come
// first, re-ranked by numeric agreement and then semantic score.
func (r *Retriever) Retrieve(ctx context.Context, claim *core.StructuredClaim, k int) ([]core.Candidate, error) {
	return r.RetrieveWithMonitor(ctx, claim, k, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each stage.
//
// Errors:
//   - core.ErrInvalidArgument: nil claim or k < 1
//   - core.ErrIndexNotBuilt: no snapshot has been published
//   - core.ErrEvidenceUnavailable: the embedder failed or timed out
//   - core.ErrDimensionMismatch: the embedder and index disagree on dimension
//
// An empty snapshot yields an empty result and no error.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, claim *core.StructuredClaim, k int, monitor Monitor) ([]core.Candidate, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim is nil", core.ErrInvalidArgument)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", core.ErrInvalidArgument, k)
	}

	snapshot := r.source.Current()
	if snapshot == nil {
		return nil, core.ErrIndexNotBuilt
	}

	monitor.Start(claim)

	if snapshot.Len() == 0 {
		monitor.Finish(nil)
		return []core.Candidate{}, nil
	}

	vector, err := r.embed(ctx, claim.NormalizedText)
	if err != nil {
		r.logger.Warn("claim embedding failed", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEvidenceUnavailable, err)
	}
	if len(vector) != snapshot.Dimension() {
		r.logger.Error("embedding dimension does not match index",
			"got", len(vector), "expected", snapshot.Dimension())
		return nil, fmt.Errorf("%w: embedder returned %d, index expects %d",
			core.ErrDimensionMismatch, len(vector), snapshot.Dimension())
	}
	monitor.AfterEmbedding(vector)

	matches, err := snapshot.Search(vector, k)
	if err != nil {
		r.logger.Error("error searching index", "err", err)
		return nil, err
	}
	monitor.AfterSearch(matches)

	candidates := make([]core.Candidate, 0, len(matches))
	for _, match := range matches {
		agreement, deviation := Agree(claim, match.Fact, r.tolerance)
		candidate := core.Candidate{
			Fact:          match.Fact,
			SemanticScore: match.Score,
			Agreement:     agreement,
			Deviation:     deviation,
		}
		monitor.Compared(candidate)
		candidates = append(candidates, candidate)
	}

	Rerank(candidates, r.relevance)
	monitor.Finish(candidates)
	return candidates, nil
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	if r.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.embedTimeout)
		defer cancel()
	}
	return r.embedder.EmbedText(ctx, text)
}
