// Package ingestion turns documents into index entries.
//
// The Pipeline type manages the ingestion workflow:
//   - Fetching the raw file from the blob store and extracting its text
//   - Normalizing whitespace and splitting the text into overlapping chunks
//   - Embedding chunks concurrently on a worker pool
//   - Appending the embedded chunks to the index and saving a snapshot
//
// Writes are serialized: one AddDocument runs at a time from embedding
// through snapshot. Chunks that fail to embed are logged and skipped, and a
// failed snapshot save is logged and reported without failing the call.
package ingestion
