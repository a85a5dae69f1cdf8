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

// Package extract turns raw claim and fact text into a comparable
// structure: normalized text, named entities and canonical quantities.
//
// The same pipeline runs over corpus statements at ingestion and over user
// claims at verification, so both sides are compared on equal terms.
package extract

import (
	"github.com/poiesic/factcheck/core"
)

// ClaimExtractor converts raw text into a StructuredClaim.
type ClaimExtractor interface {
	Extract(raw string) *core.StructuredClaim
}

// Extractor is the rule-based ClaimExtractor. It holds no mutable state and
// is safe for concurrent use.
type Extractor struct {
	gazetteer []string
}

var _ ClaimExtractor = (*Extractor)(nil)

// Option configures an Extractor.
type Option func(*Extractor)

// WithGazetteer adds entity names recognized wherever they occur as whole words.
func WithGazetteer(names ...string) Option {
	return func(e *Extractor) {
		for _, name := range names {
			if n := Normalize(name); n != "" {
				e.gazetteer = append(e.gazetteer, n)
			}
		}
	}
}

// New creates an Extractor with the built-in gazetteer of Indian states,
// union territories and ministries.
func New(opts ...Option) *Extractor {
	e := &Extractor{gazetteer: defaultGazetteer()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails. Text with no numbers or entities still yields a
// claim; its Quantities and Entities are empty.
func (e *Extractor) Extract(raw string) *core.StructuredClaim {
	normalized := Normalize(raw)
	tokens := tokenize(normalized)
	return &core.StructuredClaim{
		RawText:        raw,
		NormalizedText: normalized,
		Quantities:     Quantities(normalized),
		Entities: uniqueNormalized(
			rawEntities(raw),
			gazetteerEntities(normalized, e.gazetteer),
			schemeEntities(tokens),
		),
	}
}

// Enrich fills the derived fields of a fact record from its raw text.
func (e *Extractor) Enrich(record *core.FactRecord) {
	claim := e.Extract(record.RawText)
	record.NormalizedText = claim.NormalizedText
	record.Quantities = claim.Quantities
	record.Entities = claim.Entities
}
