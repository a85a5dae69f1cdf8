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

// Package storage provides the persistence layer for the fact corpus.
//
// The corpus is persisted as one snapshot: a header recording the embedding
// dimension, the similarity metric and the record count, followed by the
// records themselves. A snapshot is always written and replaced as a unit;
// loaders use the header to reject snapshots whose contents do not match.
//
// # Architecture
//
//   - SnapshotRepository: save and load whole snapshots
//   - memory.FactStore: the in-memory, id-unique Fact Store used at query time
//   - badger.SnapshotRepository: BadgerDB-backed snapshot persistence
//
// Records and headers are encoded with mus-go (see serialization.go).
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	repo := badger.NewSnapshotRepository(backend)
//	header, records, err := repo.Load(ctx)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
