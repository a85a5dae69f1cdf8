// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package factcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/factcheck/ai"
	"github.com/poiesic/factcheck/ai/openai"
	"github.com/poiesic/factcheck/config"
	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/corpus"
	"github.com/poiesic/factcheck/extract"
	"github.com/poiesic/factcheck/index"
	"github.com/poiesic/factcheck/ingestion"
	"github.com/poiesic/factcheck/retrieve"
	"github.com/poiesic/factcheck/storage"
	"github.com/poiesic/factcheck/storage/badger"
	"github.com/poiesic/factcheck/verdict"
	"golang.org/x/sync/errgroup"
)

// Checker verifies claims against the published corpus snapshot.
// Verify and VerifyBatch are safe for concurrent use, including while a
// Rebuild is running; they see the old snapshot until the new one is
// published.
type Checker struct {
	backend   *badger.Backend
	repo      storage.SnapshotRepository
	provider  ai.AIProvider
	embedder  ai.Embedder
	extractor *extract.Extractor
	retriever *retrieve.Retriever
	engine    *verdict.Engine
	pipeline  *ingestion.Pipeline
	holder    *corpus.Holder
	config    *config.Config

	concurrency int
	rebuildMu   sync.Mutex
	closeOnce   sync.Once
	closeErr    error
	logger      *slog.Logger
}

// Option configures a Checker.
type Option func(*options)

type options struct {
	config      *config.Config
	embedder    ai.Embedder
	provider    ai.AIProvider
	extractor   *extract.Extractor
	progress    io.Writer
	concurrency int
	skipLoad    bool
	logger      *slog.Logger
}

// WithConfig replaces config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithEmbedder uses embedder instead of building one from the embedding
// config. Caching and rate limiting from the config still apply.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithProvider uses the provider's embedder as is. The Checker closes the
// provider on Close.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithExtractor replaces the default claim extractor.
func WithExtractor(extractor *extract.Extractor) Option {
	return func(o *options) {
		o.extractor = extractor
	}
}

// WithProgress reports rebuild progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithConcurrency bounds how many claims VerifyBatch checks at once.
// Default is runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithoutLoad leaves the persisted snapshot unread; the Checker starts
// unbuilt. Used when the snapshot is about to be replaced.
func WithoutLoad() Option {
	return func(o *options) {
		o.skipLoad = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open opens the snapshot database at path and loads the persisted
// snapshot. A database with no snapshot opens unbuilt (see Ready); a corrupt
// snapshot, or one whose dimension differs from the embedding config, fails.
func Open(path string, opts ...Option) (*Checker, error) {
	o := newOptions(opts)
	backend, err := badger.OpenBackend(path, false, badger.WithBackendLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return newChecker(backend, o)
}

// NewMemoryChecker creates a Checker over an in-memory database.
func NewMemoryChecker(opts ...Option) (*Checker, error) {
	o := newOptions(opts)
	backend, err := badger.OpenBackend("", true, badger.WithBackendLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return newChecker(backend, o)
}

func newOptions(opts []Option) *options {
	o := &options{
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.config == nil {
		o.config = config.Default()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.extractor == nil {
		o.extractor = extract.New()
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

func newChecker(backend *badger.Backend, o *options) (*Checker, error) {
	c := &Checker{
		backend:     backend,
		repo:        badger.NewSnapshotRepository(backend),
		extractor:   o.extractor,
		holder:      corpus.NewHolder(),
		config:      o.config,
		concurrency: o.concurrency,
		logger:      o.logger.With("component", "checker"),
	}
	opened := false
	defer func() {
		if !opened {
			c.Close()
		}
	}()

	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	switch {
	case o.provider != nil:
		c.provider = o.provider
		c.embedder = o.provider.Embedder()
	case o.embedder != nil:
		var err error
		c.embedder, err = ai.Decorate(o.embedder, &c.config.Embedding)
		if err != nil {
			return nil, err
		}
	default:
		var err error
		c.provider, err = openai.NewProvider(&c.config.Embedding)
		if err != nil {
			return nil, err
		}
		c.embedder = c.provider.Embedder()
	}

	var err error
	c.retriever, err = retrieve.New(c.holder, c.embedder,
		retrieve.WithLogger(o.logger.With("component", "retriever")),
		retrieve.WithTolerance(c.config.Retrieval.Tolerance()),
		retrieve.WithRelevance(c.config.Verdict.SemanticThreshold),
		retrieve.WithEmbedTimeout(c.config.EmbedTimeout()))
	if err != nil {
		return nil, err
	}

	c.engine, err = verdict.New(
		verdict.WithPolicy(c.config.Verdict),
		verdict.WithLogger(o.logger.With("component", "verdict")))
	if err != nil {
		return nil, err
	}

	c.pipeline, err = ingestion.NewPipeline(c.embedder, c.config.Embedding.Dimension,
		ingestion.WithConfig(c.config.Ingestion),
		ingestion.WithExtractor(c.extractor),
		ingestion.WithMetric(index.Metric(c.config.Retrieval.Metric)),
		ingestion.WithEmbeddingModel(c.config.Embedding.EmbeddingModel),
		ingestion.WithProgress(o.progress),
		ingestion.WithLogger(o.logger.With("component", "ingestion")))
	if err != nil {
		return nil, err
	}

	if !o.skipLoad {
		if err := c.load(context.Background()); err != nil {
			return nil, err
		}
	}
	opened = true
	return c, nil
}

func (c *Checker) load(ctx context.Context) error {
	header, records, err := c.repo.Load(ctx)
	if errors.Is(err, core.ErrIndexNotBuilt) {
		c.logger.Info("no snapshot found, checker is unbuilt")
		return nil
	}
	if err != nil {
		c.logger.Error("error loading snapshot", "err", err)
		return err
	}
	if header.Dimension != c.config.Embedding.Dimension {
		return fmt.Errorf("%w: snapshot has dimension %d, embedding config says %d; rebuild the corpus",
			core.ErrDimensionMismatch, header.Dimension, c.config.Embedding.Dimension)
	}

	snapshot, err := corpus.NewSnapshot(header, records)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrCorruptStore, err)
	}
	c.holder.Publish(snapshot)
	c.logger.Info("loaded snapshot",
		"generation", header.Generation,
		"records", header.Count,
		"model", header.EmbeddingModel)
	return nil
}

// Ready reports whether a snapshot is published.
func (c *Checker) Ready() bool {
	return c.holder.Current() != nil
}

// Snapshot returns the published snapshot, or nil.
func (c *Checker) Snapshot() *corpus.Snapshot {
	return c.holder.Current()
}

// Config returns the configuration in effect. Callers must not modify it.
func (c *Checker) Config() *config.Config {
	return c.config
}

// Extract runs the claim extractor alone.
func (c *Checker) Extract(claim string) *core.StructuredClaim {
	return c.extractor.Extract(claim)
}

// Verify checks one claim. It always returns a verdict: retrieval failures
// become Unverifiable / NoEvidence and are logged.
func (c *Checker) Verify(ctx context.Context, claim string) core.Verdict {
	return c.VerifyWithMonitor(ctx, claim, nil)
}

// VerifyWithMonitor is Verify with retrieval callbacks, for tracing.
func (c *Checker) VerifyWithMonitor(ctx context.Context, claim string, monitor retrieve.Monitor) core.Verdict {
	logger := c.logger.With("verification", uuid.NewString())

	structured := c.extractor.Extract(claim)
	if structured.NormalizedText == "" {
		logger.Warn("claim has no text to verify")
		return c.engine.Decide(nil)
	}
	logger.Debug("extracted claim",
		"quantities", len(structured.Quantities),
		"entities", structured.Entities)

	candidates, err := c.retriever.RetrieveWithMonitor(ctx, structured, c.config.Retrieval.TopK, monitor)
	if err != nil {
		logger.Warn("retrieval failed", "err", err)
	}
	v := c.engine.DecideWithError(candidates, err)

	logger.Info("verified claim",
		"label", v.Label.String(),
		"reason", v.Reason.String(),
		"confidence", v.Confidence)
	return v
}

// VerifyBatch checks claims concurrently. Verdicts are in input order.
func (c *Checker) VerifyBatch(ctx context.Context, claims []string) []core.Verdict {
	verdicts := make([]core.Verdict, len(claims))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, claim := range claims {
		g.Go(func() error {
			verdicts[i] = c.Verify(ctx, claim)
			return nil
		})
	}
	_ = g.Wait()

	return verdicts
}

// Rebuild builds a new snapshot from sources, persists it, then publishes
// it. On failure nothing is persisted or published and the current
// snapshot stays in service. Rebuilds are serialized.
func (c *Checker) Rebuild(ctx context.Context, sources ...ingestion.Source) (*ingestion.Result, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	result, err := c.pipeline.Build(ctx, sources...)
	if err != nil {
		return nil, err
	}
	return c.publish(ctx, result)
}

// Reembed recomputes every vector of the published snapshot with the
// current embedder and republishes it, without rereading the sources.
func (c *Checker) Reembed(ctx context.Context) (*ingestion.Result, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	current := c.holder.Current()
	if current == nil {
		return nil, core.ErrIndexNotBuilt
	}
	result, err := c.pipeline.Reembed(ctx, current.Store().All())
	if err != nil {
		return nil, err
	}
	return c.publish(ctx, result)
}

func (c *Checker) publish(ctx context.Context, result *ingestion.Result) (*ingestion.Result, error) {
	snapshot, err := corpus.NewSnapshot(result.Header, result.Records)
	if err != nil {
		return nil, err
	}

	saved, err := c.repo.Save(ctx, result.Header, result.Records)
	if err != nil {
		c.logger.Error("error saving snapshot", "err", err)
		return nil, err
	}
	snapshot, err = snapshot.WithHeader(saved)
	if err != nil {
		return nil, err
	}

	previous := c.holder.Publish(snapshot)
	var previousGeneration uint64
	if previous != nil {
		previousGeneration = previous.Header().Generation
	}
	c.logger.Info("published snapshot",
		"generation", saved.Generation,
		"previous", previousGeneration,
		"records", saved.Count)

	result.Header = saved
	return result, nil
}

// Close releases the worker pool, the AI provider and the database.
func (c *Checker) Close() error {
	c.closeOnce.Do(func() {
		if c.pipeline != nil {
			c.pipeline.Release()
		}
		if c.provider != nil {
			if err := c.provider.Close(); err != nil {
				c.logger.Error("error closing AI provider", "err", err)
			}
		}
		if err := c.repo.Close(); err != nil {
			c.logger.Error("error closing snapshot repository", "err", err)
		}
		if err := c.backend.Close(); err != nil {
			c.logger.Error("error closing backend storage", "err", err)
			c.closeErr = err
		}
	})
	return c.closeErr
}
