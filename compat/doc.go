// Package compat reads embeddings stored in legacy formats.
//
// Four layouts are supported:
//
//   - text: one embedding per line, the word followed by whitespace
//     separated components
//   - text with dimensions: the same, preceded by a "rows cols" line
//   - word2vec binary: a "rows cols" line followed by rows of a word, a
//     single space and cols little-endian float32 values
//   - fastText binary: a trained fastText model; its vocabulary keeps the
//     n-gram buckets and its configuration becomes the metadata
//
// Readers always produce an owned dense matrix and a norm cache computed
// from the word rows. Inputs compressed with zstd or LZ4 are
// detected by their frame magic and decompressed transparently.
package compat
