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


// Package ai provides abstractions for the embedding services used by docsearch.
//
// Two interfaces split the concern:
//
//   - Provider: one raw request to a model backend, no retries
//   - Embedder: what the rest of the system consumes, returning unit vectors
//
// ResilientEmbedder turns any Provider into an Embedder. It waits on an
// optional client-side rate limiter, retries throttled requests with
// exponential backoff (1s, 2s, 4s, 8s, 16s by default), rejects vectors of
// the wrong dimension and L2-normalizes the result.
//
// # Implementation Packages
//
//   - ai/bedrock: Amazon Titan embeddings through Bedrock Runtime
//   - ai/openai: OpenAI-compatible servers through langchaingo
//   - ai/mock: deterministic feature-hashing embedder for tests
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithRegion("us-west-2"))
//	provider, err := bedrock.NewProvider(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	embedder, err := ai.NewResilientEmbedder(provider, cfg.ResilientOptions()...)
//	vector, err := embedder.EmbedText(ctx, "cremation grounds")
package ai
