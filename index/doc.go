// Package index holds the vector index over the current document's chunks.
//
// An Index is an immutable snapshot: chunk texts, unit-normalized vectors in
// the same order, the embedding model that produced them and a fingerprint of
// the whole. A Store owns the single current Index for the process, builds
// replacements, persists them as two artifacts (index.bin and chunks.bin) and
// loads them back lazily after a restart.
package index
