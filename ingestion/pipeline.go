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

package ingestion

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/factcheck/ai"
	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/extract"
	"github.com/poiesic/factcheck/index"
	"github.com/poiesic/factcheck/storage"
)

// Pipeline builds embedded fact records from sources.
// A single Pipeline may run several builds concurrently; they share its
// worker pool.
type Pipeline struct {
	embedder  ai.Embedder
	extractor *extract.Extractor
	pool      *ants.Pool
	config    Config
	dimension int
	metric    index.Metric
	model     string
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces DefaultConfig.
func WithConfig(config Config) Option {
	return func(p *Pipeline) error {
		if err := config.Validate(); err != nil {
			return err
		}
		p.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithExtractor sets the extractor run over every statement.
// Default is extract.New().
func WithExtractor(extractor *extract.Extractor) Option {
	return func(p *Pipeline) error {
		if extractor != nil {
			p.extractor = extractor
		}
		return nil
	}
}

// WithMetric sets the similarity metric recorded in the snapshot header.
// Vectors are normalized to unit length for index.MetricCosine.
func WithMetric(metric index.Metric) Option {
	return func(p *Pipeline) error {
		parsed, err := index.ParseMetric(string(metric))
		if err != nil {
			return err
		}
		p.metric = parsed
		return nil
	}
}

// WithEmbeddingModel records the model name in the snapshot header.
func WithEmbeddingModel(model string) Option {
	return func(p *Pipeline) error {
		p.model = model
		return nil
	}
}

// WithProgress reports embedding progress to w, typically os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates a pipeline producing vectors of the given dimension.
// Call Release when done.
func NewPipeline(embedder ai.Embedder, dimension int, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if dimension < 1 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", core.ErrInvalidArgument, dimension)
	}

	p := &Pipeline{
		embedder:  embedder,
		extractor: extract.New(),
		config:    DefaultConfig(),
		dimension: dimension,
		metric:    index.MetricCosine,
		logger:    slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(p.config.PoolSize)
	if err != nil {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// Result is the output of a successful build.
type Result struct {
	// Header carries Dimension, Metric, Count and EmbeddingModel.
	// Generation and BuiltAt are left for the repository to assign.
	Header storage.SnapshotHeader
	// Records are fully enriched and embedded, in ascending ID order.
	Records []*core.FactRecord
	// Skipped counts statements with no usable text.
	Skipped int
	// Duplicates counts repeated statements that were dropped.
	Duplicates int
}

// Build reads every source, extracts and embeds the statements and returns
// the records. Any source or embedding failure fails the whole build.
//
// Two statements sharing an ID are a duplicate when their text matches and
// the second is dropped; otherwise Build fails with core.ErrDuplicateID.
func (p *Pipeline) Build(ctx context.Context, sources ...Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrSourceRequired
	}

	var statements []Statement
	for _, source := range sources {
		read, err := source.Statements(ctx)
		if err != nil {
			p.logger.Error("error reading source", "source", source.Name(), "err", err)
			return nil, fmt.Errorf("source %s: %w", source.Name(), err)
		}
		p.logger.Info("read source", "source", source.Name(), "statements", len(read))
		statements = append(statements, read...)
	}

	result := &Result{}
	records, err := p.toRecords(statements, result)
	if err != nil {
		return nil, err
	}

	if err := p.embed(ctx, records); err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b *core.FactRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})

	result.Records = records
	result.Header = p.header(len(records))

	p.logger.Info("built fact records",
		"records", len(records),
		"skipped", result.Skipped,
		"duplicates", result.Duplicates)
	return result, nil
}

// Reembed computes fresh vectors for existing records, for example after the
// embedding model changed. The records passed in are not modified; the
// result holds copies with new vectors and the pipeline's header.
func (p *Pipeline) Reembed(ctx context.Context, records []*core.FactRecord) (*Result, error) {
	copies := make([]*core.FactRecord, len(records))
	for i, record := range records {
		c := *record
		c.Vector = nil
		if c.NormalizedText == "" {
			p.extractor.Enrich(&c)
		}
		copies[i] = &c
	}

	if err := p.embed(ctx, copies); err != nil {
		return nil, err
	}

	slices.SortFunc(copies, func(a, b *core.FactRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})

	p.logger.Info("re-embedded fact records", "records", len(copies), "model", p.model)
	return &Result{
		Header:  p.header(len(copies)),
		Records: copies,
	}, nil
}

func (p *Pipeline) header(count int) storage.SnapshotHeader {
	return storage.SnapshotHeader{
		Dimension:      p.dimension,
		Metric:         string(p.metric),
		Count:          count,
		EmbeddingModel: p.model,
	}
}

func (p *Pipeline) toRecords(statements []Statement, result *Result) ([]*core.FactRecord, error) {
	records := make([]*core.FactRecord, 0, len(statements))
	byID := make(map[core.ID]*core.FactRecord, len(statements))

	for _, s := range statements {
		s.Text = strings.Join(strings.Fields(s.Text), " ")
		if s.Text == "" {
			result.Skipped++
			continue
		}

		id := recordID(s)
		if existing, ok := byID[id]; ok {
			if existing.RawText == s.Text {
				result.Duplicates++
				continue
			}
			return nil, fmt.Errorf("%w: %d is used by two different statements", core.ErrDuplicateID, id)
		}

		date, ok := ParseSourceDate(s.Date)
		if !ok && s.Date != "" {
			p.logger.Warn("unrecognized source date, leaving it empty", "id", id, "date", s.Date)
		}
		source := s.Source
		if source == "" {
			source = DefaultSourceName
		}

		record := &core.FactRecord{
			ID:         id,
			RawText:    s.Text,
			SourceDate: date,
			Source:     source,
			Title:      strings.TrimSpace(s.Title),
			URL:        strings.TrimSpace(s.URL),
		}
		p.extractor.Enrich(record)
		if record.NormalizedText == "" {
			result.Skipped++
			continue
		}

		byID[id] = record
		records = append(records, record)
	}
	return records, nil
}

// embed fills in the vectors of records, one pool task per batch.
func (p *Pipeline) embed(ctx context.Context, records []*core.FactRecord) error {
	if len(records) == 0 {
		return nil
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(records), p.config.ReportInterval)
		tracker.Start()
		defer tracker.Finish()
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for start := 0; start < len(records) && ctx.Err() == nil; start += p.config.BatchSize {
		batch := records[start:min(start+p.config.BatchSize, len(records))]

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.embedBatch(ctx, batch); err != nil {
				cancel(err)
				return
			}
			if tracker != nil {
				tracker.Increment(len(batch))
			}
		})
		if err != nil {
			wg.Done()
			cancel(err)
			break
		}
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		p.logger.Error("error embedding statements", "err", err)
		return err
	}
	return nil
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.FactRecord) error {
	texts := make([]string, len(batch))
	for i, record := range batch {
		texts[i] = record.NormalizedText
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return Permanent(fmt.Errorf("%w: expected %d, got %d", ai.ErrEmbeddingCount, len(texts), len(vectors)))
		}
		return nil
	}, p.config.MaxRetries, p.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to embed %d statements after %d attempts: %w", len(texts), p.config.MaxRetries, err)
	}

	for i, vector := range vectors {
		if err := core.ValidateDimension(vector, p.dimension); err != nil {
			return fmt.Errorf("record %d: %w", batch[i].ID, err)
		}
		if p.metric == index.MetricCosine {
			vector = index.NormalizeVector(vector)
		}
		batch[i].Vector = vector
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
