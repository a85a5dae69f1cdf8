package storage

import (
	"context"
	"time"

	"github.com/poiesic/factcheck/core"
)

// SnapshotHeader describes a persisted snapshot.
// Loaders compare it against the stored records to detect corruption.
type SnapshotHeader struct {
	Generation     uint64    // Incremented on every save
	Dimension      int       // Embedding dimension of every record
	Metric         string    // Similarity metric identifier (see index.Metric)
	Count          int       // Number of records in the snapshot
	EmbeddingModel string    // Model used to embed the records
	BuiltAt        time.Time // When the snapshot was saved
}

// SnapshotRepository persists the fact corpus as a single unit.
// Implementations must be thread-safe and support concurrent access.
type SnapshotRepository interface {
	// Save replaces the persisted snapshot with records.
	// The previous snapshot stays readable until the new one is complete.
	// Generation and BuiltAt of the header are assigned by the repository.
	// Returns the header as stored.
	Save(ctx context.Context, header SnapshotHeader, records []*core.FactRecord) (SnapshotHeader, error)

	// Load reads the current snapshot.
	// Returns core.ErrIndexNotBuilt if nothing was ever saved and
	// core.ErrCorruptStore if the records disagree with the header.
	Load(ctx context.Context) (SnapshotHeader, []*core.FactRecord, error)

	// Header reads only the current snapshot header.
	// Returns core.ErrIndexNotBuilt if nothing was ever saved.
	Header(ctx context.Context) (SnapshotHeader, error)

	// Close releases resources held by the repository.
	Close() error
}
