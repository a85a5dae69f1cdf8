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

// Package ai provides the embedding capability used to place facts and
// claims in the same vector space.
//
// The package defines the Embedder interface and two decorators built on it:
//
//   - CachingEmbedder: remembers vectors by exact text (go-cache)
//   - RateLimitedEmbedder: holds calls behind a token bucket (x/time/rate)
//
// Decorate applies both according to a Config.
//
// # Implementation Packages
//
//   - ai/openai: production embedder for OpenAI-compatible APIs via langchaingo
//   - ai/mock: deterministic feature-hashing embedder for tests
//
// Public constructors in ai/openai return INTERFACE types. Test constructors
// in ai/mock return CONCRETE types so tests can inject failures and read call
// counts.
//
// # Usage Example
//
//	cfg := ai.DefaultConfig()
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "nba released 39.84 crore")
package ai
