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


// Package search provides hybrid semantic and keyword search over the index.
//
// The Searcher type ranks chunks by combining two signals:
//   - Semantic similarity between the query and chunk embeddings
//   - Keyword overlap between meaningful query terms and chunk text
//
// Semantic candidates come from a nearest-neighbor query for 3k entries.
// The keyword signal is evaluated over every entry, so chunks the vector
// search missed can still surface. The fused score is a weighted sum of the
// two signals, duplicate chunk texts are dropped and ties keep discovery
// order, semantic candidates first.
package search
