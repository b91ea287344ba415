package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/embedstore/internal/math32"
)

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(1)
	for _, v := range rng.UnitVectors(10, 16) {
		assert.InDelta(t, 1.0, math32.Norm(v), 1e-5)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(7)
	a := rng.Matrix(3, 4)
	rng.Reset()
	assert.Equal(t, a, rng.Matrix(3, 4))
	assert.Equal(t, int64(7), rng.Seed())
}

func TestWords(t *testing.T) {
	words := NewRNG(3).Words(500)
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	assert.Len(t, seen, 500)
}

func TestClusteredVectors(t *testing.T) {
	vecs := NewRNG(2).ClusteredVectors(20, 8, 4, 0.01)
	assert.Len(t, vecs, 20)
	// Members of a tight cluster are almost parallel.
	assert.Greater(t, Cosine(vecs[0], vecs[4]), 0.9)
}

func TestBruteForceCosine(t *testing.T) {
	rows := [][]float32{
		{1, 0},
		{0, 1},
		{1, 1},
		{2, 0},
	}

	got := BruteForceCosine(rows, []float32{1, 0}, 3, map[int]bool{1: true})
	assert.Len(t, got, 3)
	// Rows 0 and 3 tie at 1, ascending row order decides.
	assert.Equal(t, 0, got[0].Row)
	assert.Equal(t, 3, got[1].Row)
	assert.Equal(t, 2, got[2].Row)

	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 1.0, Recall(got, got))
	assert.Equal(t, 0.0, Recall(got, nil))
}
