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

package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/storage"
)

// SnapshotRepository implements storage.SnapshotRepository for BadgerDB.
//
// Each save writes its records under a new generation prefix and only then
// points the header at that generation, so a crash mid-save leaves the
// previous snapshot intact.
type SnapshotRepository struct {
	backend *Backend
	saveMu  sync.Mutex
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(backend *Backend) *SnapshotRepository {
	return &SnapshotRepository{
		backend: backend,
	}
}

// Close releases resources. The backend is owned by the caller.
func (r *SnapshotRepository) Close() error {
	return nil
}

// Save persists records as the new current snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, header storage.SnapshotHeader, records []*core.FactRecord) (storage.SnapshotHeader, error) {
	if r.backend.IsClosed() {
		return storage.SnapshotHeader{}, storage.ErrStorageClosed
	}
	if header.Dimension < 1 {
		return storage.SnapshotHeader{}, fmt.Errorf("%w: dimension must be positive", core.ErrInvalidArgument)
	}
	for _, record := range records {
		if err := core.ValidateDimension(record.Vector, header.Dimension); err != nil {
			return storage.SnapshotHeader{}, fmt.Errorf("record %d: %w", record.ID, err)
		}
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	previous, err := r.Header(ctx)
	hasPrevious := err == nil
	if err != nil && !errors.Is(err, core.ErrIndexNotBuilt) {
		return storage.SnapshotHeader{}, err
	}

	header.Generation = previous.Generation + 1
	header.Count = len(records)
	header.BuiltAt = time.Now().UTC().Truncate(time.Microsecond)

	err = r.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for i, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeFactRecordKey(header.Generation, i), storage.MarshalFactRecord(record)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.dropGeneration(header.Generation)
		return storage.SnapshotHeader{}, err
	}

	// Publishing the header is the commit point.
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(snapshotHeaderKey), storage.MarshalSnapshotHeader(header)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		r.dropGeneration(header.Generation)
		return storage.SnapshotHeader{}, err
	}

	if hasPrevious {
		r.dropGeneration(previous.Generation)
	}

	r.backend.logger.Info("saved snapshot",
		"generation", header.Generation,
		"records", header.Count,
		"dimension", header.Dimension,
		"metric", header.Metric)
	return header, nil
}

// Header reads the current snapshot header.
func (r *SnapshotRepository) Header(ctx context.Context) (storage.SnapshotHeader, error) {
	var header storage.SnapshotHeader
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		header, err = readHeader(tx)
		return err
	}, false)
	return header, err
}

// Load reads the current snapshot and checks it against its header.
func (r *SnapshotRepository) Load(ctx context.Context) (storage.SnapshotHeader, []*core.FactRecord, error) {
	if r.backend.IsClosed() {
		return storage.SnapshotHeader{}, nil, storage.ErrStorageClosed
	}

	var (
		header  storage.SnapshotHeader
		records []*core.FactRecord
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		header, err = readHeader(tx)
		if err != nil {
			return err
		}

		records = make([]*core.FactRecord, 0, header.Count)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGenerationPrefix(header.Generation)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *core.FactRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalFactRecord(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", core.ErrCorruptStore, err)
			}
			if len(record.Vector) != header.Dimension {
				return fmt.Errorf("%w: record %d has %d-dimensional vector, header says %d",
					core.ErrCorruptStore, record.ID, len(record.Vector), header.Dimension)
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return storage.SnapshotHeader{}, nil, err
	}

	if len(records) != header.Count {
		return storage.SnapshotHeader{}, nil, fmt.Errorf("%w: header lists %d records, found %d",
			core.ErrCorruptStore, header.Count, len(records))
	}
	return header, records, nil
}

func (r *SnapshotRepository) dropGeneration(generation uint64) {
	if err := r.backend.DropPrefix(makeGenerationPrefix(generation)); err != nil {
		r.backend.logger.Warn("failed to drop snapshot generation", "generation", generation, "err", err)
	}
}

func readHeader(tx *badger.Txn) (storage.SnapshotHeader, error) {
	item, err := tx.Get([]byte(snapshotHeaderKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.SnapshotHeader{}, core.ErrIndexNotBuilt
		}
		return storage.SnapshotHeader{}, err
	}

	var header storage.SnapshotHeader
	err = item.Value(func(val []byte) error {
		var err error
		header, err = storage.UnmarshalSnapshotHeader(val)
		return err
	})
	if err != nil {
		return storage.SnapshotHeader{}, fmt.Errorf("%w: %w", core.ErrCorruptStore, err)
	}
	return header, nil
}
