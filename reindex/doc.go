// Package reindex rebuilds index entries from every document in the blob store.
//
// A Reindexer lists the stored documents, skips the snapshot prefix, and
// feeds each key through the ingestion pipeline while reporting progress.
// Per-file failures are counted and reported; they do not stop the run.
package reindex
