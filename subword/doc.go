// Package subword extracts character n-grams from words and maps them to
// embedding matrix rows.
//
// Three indexers are provided:
//
//   - HashIndexer: FNV-1a hashing into 2^exp buckets (the native bucket scheme)
//   - FastTextIndexer: fastText-compatible hashing modulo a bucket count
//   - ExplicitIndexer: a fixed n-gram table, unknown n-grams are not indexed
//
// All indexers are deterministic: the same word and parameters always produce
// the same indices. Indices are relative to the subword section of the matrix;
// vocabularies add the number of known words.
package subword
