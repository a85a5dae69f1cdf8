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

import "errors"

// Verification errors
var (
	// ErrInvalidArgument indicates a caller supplied a bad parameter (for example k < 1).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexNotBuilt indicates a search or load against an index that was never built.
	ErrIndexNotBuilt = errors.New("index not built")

	// ErrCorruptStore indicates a persisted snapshot disagrees with its own header.
	ErrCorruptStore = errors.New("corrupt fact store")

	// ErrDuplicateID indicates a fact ID was inserted twice.
	ErrDuplicateID = errors.New("duplicate fact id")

	// ErrNotFound indicates the requested fact does not exist.
	ErrNotFound = errors.New("fact not found")

	// ErrEvidenceUnavailable indicates evidence could not be gathered, usually
	// because the embedding service failed or timed out.
	ErrEvidenceUnavailable = errors.New("evidence unavailable")

	// ErrDimensionMismatch indicates a vector does not have the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Domain validation errors
var (
	// ErrInvalidFactRecord indicates a FactRecord failed validation.
	ErrInvalidFactRecord = errors.New("invalid fact record")

	// ErrEmptyContent indicates the RawText field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingVector indicates a record has no embedding.
	ErrMissingVector = errors.New("embedding vector is missing")

	// ErrInvalidSourceDate indicates SourceDate is not a YYYY-MM-DD date.
	ErrInvalidSourceDate = errors.New("source date must be YYYY-MM-DD")
)
