// Package testutil provides helpers for tests and benchmarks: a seeded,
// thread-safe random generator for vectors and vocabularies, and an exact
// cosine ranking used as an oracle for similarity queries.
//
//	rng := testutil.NewRNG(42)
//	rows := rng.UnitVectors(1000, 64)
//	want := testutil.BruteForceCosine(rows, query, 10, nil)
package testutil
