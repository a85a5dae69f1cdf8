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

// Package retrieve implements evidence retrieval for a claim.
//
// A Retriever embeds the claim's normalized text, searches the current
// corpus snapshot for the k nearest facts, classifies how each fact's
// numbers agree with the claim's, and re-ranks the candidates so numeric
// agreement outweighs raw similarity.
//
// # Numeric agreement
//
// Quantities are compared only within the same canonical unit, using the
// relative difference |claim-fact| / max(|fact|, 1e-9):
//
//   - exact: within the exact tolerance (default 1%)
//   - withinTolerance: within the wide tolerance (default 5%)
//   - conflicting: comparable, but beyond the wide tolerance
//   - absent: nothing comparable
//
// # Monitoring
//
// RetrieveWithMonitor accepts a Monitor that observes each stage. LogMonitor
// writes the stages to a slog logger at debug level.
package retrieve
