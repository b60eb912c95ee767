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


// Package storage provides the blob storage abstraction used by docsearch.
//
// Uploaded documents and the vector index snapshot both live in a BlobStore.
// Two backends are provided:
//
//   - storage/s3: an S3 bucket, the production deployment
//   - storage/badger: a BadgerDB directory, or in-memory for tests
//
// # Usage
//
//	store, err := badger.OpenBlobStore("/var/lib/docsearch")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	data, err := store.Get(ctx, "uploads/report.pdf")
//	if errors.Is(err, storage.ErrNotFound) {
//	    ...
//	}
//
// # Thread Safety
//
// All BlobStore implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
