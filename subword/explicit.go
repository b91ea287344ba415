package subword

import (
	"errors"
	"fmt"
)

// ErrDuplicateNGram is returned when an explicit n-gram table lists an n-gram twice.
var ErrDuplicateNGram = errors.New("subword: duplicate n-gram")

// ExplicitIndexer maps a fixed set of n-grams to indices. Several n-grams may
// share an index.
type ExplicitIndexer struct {
	minN   int
	maxN   int
	ngrams []string
	index  map[string]int
	bound  int
}

// NewExplicitIndexer assigns the i-th n-gram index i.
func NewExplicitIndexer(ngrams []string, minN, maxN int) (*ExplicitIndexer, error) {
	indices := make([]int, len(ngrams))
	for i := range indices {
		indices[i] = i
	}
	return NewExplicitIndexerWithIndices(ngrams, indices, minN, maxN)
}

// NewExplicitIndexerWithIndices builds an indexer from parallel n-gram and
// index slices.
func NewExplicitIndexerWithIndices(ngrams []string, indices []int, minN, maxN int) (*ExplicitIndexer, error) {
	if err := validateRange(minN, maxN); err != nil {
		return nil, err
	}
	if len(ngrams) != len(indices) {
		return nil, fmt.Errorf("subword: %d n-grams but %d indices", len(ngrams), len(indices))
	}

	index := make(map[string]int, len(ngrams))
	bound := 0
	for i, ngram := range ngrams {
		if _, ok := index[ngram]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNGram, ngram)
		}
		if indices[i] < 0 {
			return nil, fmt.Errorf("subword: negative index %d for %q", indices[i], ngram)
		}
		index[ngram] = indices[i]
		if indices[i] >= bound {
			bound = indices[i] + 1
		}
	}

	return &ExplicitIndexer{
		minN:   minN,
		maxN:   maxN,
		ngrams: ngrams,
		index:  index,
		bound:  bound,
	}, nil
}

// MinN implements Indexer.
func (e *ExplicitIndexer) MinN() int { return e.minN }

// MaxN implements Indexer.
func (e *ExplicitIndexer) MaxN() int { return e.maxN }

// UpperBound implements Indexer.
func (e *ExplicitIndexer) UpperBound() int { return e.bound }

// NGramList returns the n-grams in table order.
func (e *ExplicitIndexer) NGramList() []string { return e.ngrams }

// NGrams implements Indexer.
func (e *ExplicitIndexer) NGrams(word string) []string {
	return NGrams(Bracket(word), e.minN, e.maxN)
}

// Index implements Indexer.
func (e *ExplicitIndexer) Index(ngram string) (int, bool) {
	i, ok := e.index[ngram]
	return i, ok
}
