package subword

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned for an invalid n-gram length range.
var ErrInvalidRange = errors.New("subword: invalid n-gram range")

// Indexer maps n-grams to subword indices.
type Indexer interface {
	// MinN returns the minimum n-gram length.
	MinN() int
	// MaxN returns the maximum n-gram length.
	MaxN() int
	// UpperBound returns the number of distinct indices the indexer can produce.
	UpperBound() int
	// Index returns the index of an n-gram. The second return value is false
	// if the n-gram cannot be indexed.
	Index(ngram string) (int, bool)
	// NGrams returns the n-grams of a word, including word boundary markers.
	NGrams(word string) []string
}

// NGramIndex pairs an n-gram with its index.
type NGramIndex struct {
	NGram string
	Index int
	// OK is false when the indexer does not know the n-gram.
	OK bool
}

// NGramIndices returns every n-gram of word together with its index.
func NGramIndices(idx Indexer, word string) []NGramIndex {
	ngrams := idx.NGrams(word)
	out := make([]NGramIndex, 0, len(ngrams))
	for _, ngram := range ngrams {
		i, ok := idx.Index(ngram)
		out = append(out, NGramIndex{NGram: ngram, Index: i, OK: ok})
	}
	return out
}

// Indices returns the indices of all indexable n-grams of word. Repeated
// n-grams contribute repeated indices.
func Indices(idx Indexer, word string) []int {
	ngrams := idx.NGrams(word)
	out := make([]int, 0, len(ngrams))
	for _, ngram := range ngrams {
		if i, ok := idx.Index(ngram); ok {
			out = append(out, i)
		}
	}
	return out
}

func validateRange(minN, maxN int) error {
	if minN < 1 || maxN < minN {
		return fmt.Errorf("%w: min_n=%d max_n=%d", ErrInvalidRange, minN, maxN)
	}
	return nil
}
