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
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrExtraction indicates text could not be extracted from a document.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates an embedding could not be generated.
	ErrEmbedding = errors.New("embedding failed")

	// ErrMaxRetriesExceeded indicates the provider kept throttling past the retry budget.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrPersistence indicates the index snapshot could not be written or read.
	ErrPersistence = errors.New("persistence failed")

	// ErrIndexCorruption indicates the vector store and metadata table disagree.
	ErrIndexCorruption = errors.New("index corruption")

	// ErrTimeout indicates an ingestion or query exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrDimensionMismatch indicates a vector has the wrong number of components.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidDocument indicates a RawDocument failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyQuery indicates a search query with no content.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// ExtractionError is returned when a single document cannot be read.
// It is fatal for that document only.
type ExtractionError struct {
	Source string
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("extract %s (%s): %v", e.Source, e.Format, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is reports ErrExtraction as matching so callers can test the category.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// EmbeddingError is returned when an embedding could not be produced.
// Retryable is true when the last failure was throttling; such errors are
// only surfaced once the retry budget is spent.
type EmbeddingError struct {
	Attempts  int
	Retryable bool
	Err       error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is reports ErrEmbedding as matching so callers can test the category.
func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }
