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
// Package docsearch ingests documents and answers hybrid semantic and
// keyword queries over their text.
//
// A Service wires the pieces together: a blob store holding raw files and
// the index snapshot, a text extractor with OCR fallback, a resilient
// embedding client, the in-memory vector index, the ingestion pipeline and
// the searcher.
//
//	svc, err := docsearch.New(ctx, docsearch.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	result := svc.IngestFile(ctx, "handbook.pdf")
//	hits, err := svc.Search(ctx, "cremation grounds", 5)
package docsearch
