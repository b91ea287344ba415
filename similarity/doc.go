// Package similarity ranks vocabulary words by cosine similarity.
//
// The Engine scores every known word row against a query vector and keeps the
// k best in bounded heaps, one per row shard. Shards are scored concurrently
// and merged deterministically: results are ordered by descending similarity
// with ties broken by ascending row.
//
// Queries need zero-copy row access, so the engine only serves storage that
// implements storage.View.
package similarity
