package embedstore

import (
	"iter"

	"github.com/hupe1980/embedstore/internal/math32"
)

// Iterator walks the known words in row order. Each step copies the current
// embedding, so an Iterator stays valid while metadata is replaced
// concurrently. It must not be used after the Embeddings are closed.
type Iterator struct {
	e    *Embeddings
	next int
	word string
	vec  []float32
	norm float32
}

// Iter returns a fresh iterator positioned before the first word.
func (e *Embeddings) Iter() *Iterator {
	return &Iterator{e: e}
}

// Next advances to the next word and reports whether there is one.
func (it *Iterator) Next() bool {
	e := it.e
	e.mu.RLock()
	defer e.mu.RUnlock()

	if it.next >= e.vocab.WordsLen() {
		it.word, it.vec, it.norm = "", nil, 0
		return false
	}

	i := it.next
	it.next++
	it.word = e.vocab.Words()[i]
	it.vec = e.storage.Embedding(i)
	if norm, ok := e.norms.Lookup(i); ok {
		it.norm = norm
	} else {
		it.norm = math32.Norm(it.vec)
	}
	return true
}

// Word returns the current word.
func (it *Iterator) Word() string { return it.word }

// Embedding returns the embedding of the current word. The slice is owned by
// the caller.
func (it *Iterator) Embedding() []float32 { return it.vec }

// Norm returns the norm of the current word, taken from the norm cache when
// there is one.
func (it *Iterator) Norm() float32 { return it.norm }

// All yields every known word with its embedding in row order.
func (e *Embeddings) All() iter.Seq2[string, []float32] {
	return func(yield func(string, []float32) bool) {
		it := e.Iter()
		for it.Next() {
			if !yield(it.Word(), it.Embedding()) {
				return
			}
		}
	}
}

// AllWithNorms is All with the norm of every word.
func (e *Embeddings) AllWithNorms() iter.Seq2[string, EmbeddingWithNorm] {
	return func(yield func(string, EmbeddingWithNorm) bool) {
		it := e.Iter()
		for it.Next() {
			if !yield(it.Word(), EmbeddingWithNorm{Embedding: it.Embedding(), Norm: it.Norm()}) {
				return
			}
		}
	}
}
