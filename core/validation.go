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

package core

import (
	"fmt"
	"strings"
	"time"
)

const sourceDateLayout = "2006-01-02"

// ValidateFactRecord validates a FactRecord before it is added to a store.
//
// Validation rules:
//   - RawText must not be blank
//   - Vector must be present
//   - SourceDate, when set, must be YYYY-MM-DD
//
// NOT validated:
//   - Quantities and Entities (a fact may legitimately have none)
//   - Vector length (checked against the index dimension at build time)
func ValidateFactRecord(record *FactRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidFactRecord)
	}

	if strings.TrimSpace(record.RawText) == "" {
		return fmt.Errorf("%w: id %d: %w", ErrInvalidFactRecord, record.ID, ErrEmptyContent)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: id %d: %w", ErrInvalidFactRecord, record.ID, ErrMissingVector)
	}

	if record.SourceDate != "" && !IsValidSourceDate(record.SourceDate) {
		return fmt.Errorf("%w: id %d: %w", ErrInvalidFactRecord, record.ID, ErrInvalidSourceDate)
	}

	return nil
}

// IsValidSourceDate checks that a date string is a calendar date in YYYY-MM-DD form.
func IsValidSourceDate(date string) bool {
	_, err := time.Parse(sourceDateLayout, date)
	return err == nil
}

// ValidateDimension checks that a vector has exactly the expected number of components.
func ValidateDimension(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dimension)
	}
	return nil
}
