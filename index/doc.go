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


// Package index holds the in-memory vector index and its durable snapshot.
//
// The index is append-only: ids are assigned contiguously from the current
// size and entries are never modified or removed. A View captures the index
// at a point in time and can be searched without holding any lock while
// writers keep appending.
//
// Snapshots are a single versioned blob:
//
//	magic "DSIX" | version | dimension | vector count | float32 components
//	| metadata count | (id, text, source)... | BLAKE2b-256 checksum
//
// Integers are MUS varints, strings are length-prefixed and floats are raw
// little-endian float32 values.
package index
