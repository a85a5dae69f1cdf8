// Package memory provides the in-memory Fact Store.
package memory

import (
	"fmt"
	"sync"

	"github.com/poiesic/factcheck/core"
)

// FactStore holds fact records keyed by ID.
// IDs are unique; a batch containing a duplicate is rejected as a whole.
type FactStore struct {
	mu      sync.RWMutex
	records []*core.FactRecord
	byID    map[core.ID]int
}

// NewFactStore creates an empty store.
func NewFactStore() *FactStore {
	return &FactStore{
		byID: make(map[core.ID]int),
	}
}

// Add inserts records in order.
// Every record is validated and checked for ID collisions, both against the
// store and within the batch, before anything is committed.
func (s *FactStore) Add(records ...*core.FactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[core.ID]struct{}, len(records))
	for _, record := range records {
		if err := core.ValidateFactRecord(record); err != nil {
			return err
		}
		if _, exists := s.byID[record.ID]; exists {
			return fmt.Errorf("%w: %d", core.ErrDuplicateID, record.ID)
		}
		if _, exists := seen[record.ID]; exists {
			return fmt.Errorf("%w: %d", core.ErrDuplicateID, record.ID)
		}
		seen[record.ID] = struct{}{}
	}

	for _, record := range records {
		s.byID[record.ID] = len(s.records)
		s.records = append(s.records, record)
	}
	return nil
}

// Get returns the record with the given ID.
// Returns core.ErrNotFound if no such record exists.
func (s *FactStore) Get(id core.ID) (*core.FactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", core.ErrNotFound, id)
	}
	return s.records[pos], nil
}

// At returns the record at insertion position i, or nil when out of range.
func (s *FactStore) At(i int) *core.FactRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= len(s.records) {
		return nil
	}
	return s.records[i]
}

// All returns every record in insertion order.
// The returned slice is a copy; the records themselves are shared and must not be modified.
func (s *FactStore) All() []*core.FactRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.FactRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *FactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
