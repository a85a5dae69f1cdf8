// Package corpus bundles the Fact Store and the Embedding Index into an
// immutable snapshot, and publishes snapshots atomically.
package corpus

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/index"
	"github.com/poiesic/factcheck/storage"
	"github.com/poiesic/factcheck/storage/memory"
)

// Snapshot is a read-only view of the corpus: the records, their index and
// the header they were persisted with. Position i in the index is record i in
// the store.
type Snapshot struct {
	header storage.SnapshotHeader
	store  *memory.FactStore
	index  *index.Flat
}

// NewSnapshot builds a snapshot from records.
// Records are ordered by ascending ID before indexing, so index ties resolve
// by ascending ID. Fails with core.ErrDuplicateID, core.ErrInvalidFactRecord
// or core.ErrDimensionMismatch; nothing is published on failure.
func NewSnapshot(header storage.SnapshotHeader, records []*core.FactRecord) (*Snapshot, error) {
	metric, err := index.ParseMetric(header.Metric)
	if err != nil {
		return nil, err
	}
	header.Metric = string(metric)
	if header.Count != len(records) {
		return nil, fmt.Errorf("%w: header lists %d records, got %d", core.ErrCorruptStore, header.Count, len(records))
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b *core.FactRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})

	store := memory.NewFactStore()
	if err := store.Add(sorted...); err != nil {
		return nil, err
	}

	flat, err := index.NewFlat(header.Dimension, metric)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(sorted))
	for i, record := range sorted {
		vectors[i] = record.Vector
	}
	if err := flat.Build(vectors); err != nil {
		return nil, err
	}

	if flat.Len() != store.Len() {
		return nil, fmt.Errorf("%w: %d vectors for %d records", core.ErrCorruptStore, flat.Len(), store.Len())
	}

	return &Snapshot{
		header: header,
		store:  store,
		index:  flat,
	}, nil
}

// Header returns the header the snapshot was built from.
func (s *Snapshot) Header() storage.SnapshotHeader {
	return s.header
}

// WithHeader returns a snapshot sharing s's store and index under a new
// header, for example once a repository has assigned the generation.
// The record count and dimension must be unchanged.
func (s *Snapshot) WithHeader(header storage.SnapshotHeader) (*Snapshot, error) {
	if header.Count != s.Len() || header.Dimension != s.Dimension() {
		return nil, fmt.Errorf("%w: header describes %d records of dimension %d, snapshot has %d of dimension %d",
			core.ErrCorruptStore, header.Count, header.Dimension, s.Len(), s.Dimension())
	}
	header.Metric = s.header.Metric
	return &Snapshot{header: header, store: s.store, index: s.index}, nil
}

// Dimension returns the embedding dimension.
func (s *Snapshot) Dimension() int {
	return s.index.Dimension()
}

// Len returns the number of facts.
func (s *Snapshot) Len() int {
	return s.store.Len()
}

// Store returns the Fact Store.
func (s *Snapshot) Store() *memory.FactStore {
	return s.store
}

// Index returns the Embedding Index.
func (s *Snapshot) Index() *index.Flat {
	return s.index
}

// Match is a fact found by Search together with its similarity score.
type Match struct {
	Fact  *core.FactRecord
	Score float32
}

// Search returns up to k facts nearest to query, highest score first.
func (s *Snapshot) Search(query []float32, k int) ([]Match, error) {
	hits, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		fact := s.store.At(hit.Index)
		if fact == nil {
			return nil, fmt.Errorf("%w: index position %d has no record", core.ErrCorruptStore, hit.Index)
		}
		matches = append(matches, Match{Fact: fact, Score: hit.Score})
	}
	return matches, nil
}

// Source supplies the snapshot that queries should run against.
type Source interface {
	// Current returns the published snapshot, or nil if none has been published.
	Current() *Snapshot
}

// Holder publishes snapshots. Readers calling Current always get a complete
// snapshot: either the previous one or the new one.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

var _ Source = (*Holder)(nil)

// NewHolder creates a holder with nothing published.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the published snapshot, or nil.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Publish makes snapshot current and returns the one it replaced.
func (h *Holder) Publish(snapshot *Snapshot) *Snapshot {
	return h.current.Swap(snapshot)
}
