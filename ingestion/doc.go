// Package ingestion turns a PDF on disk into a persisted vector index.
//
// The Pipeline runs three stages in order:
//   - ExtractStage reads page texts and joins them with a blank line
//   - ChunkStage splits the text into overlapping windows
//   - BuildStage embeds the chunks and replaces the index, under a lock
//
// A successful run is recorded in the document registry when one is configured.
// Failures are reported in core.State.Err; nothing is retried.
package ingestion
