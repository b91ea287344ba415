package vocab

import (
	"errors"

	"github.com/hupe1980/embedstore/subword"
)

// SubwordVocab is a vocabulary that composes unknown words from n-gram rows.
// n-gram rows start after the word rows.
type SubwordVocab struct {
	words
	indexer subword.Indexer
}

var _ Vocab = (*SubwordVocab)(nil)

// NewSubwordVocab creates a subword vocabulary.
func NewSubwordVocab(list []string, indexer subword.Indexer) (*SubwordVocab, error) {
	if indexer == nil {
		return nil, errors.New("vocab: nil indexer")
	}
	w, err := newWords(list)
	if err != nil {
		return nil, err
	}
	return &SubwordVocab{words: w, indexer: indexer}, nil
}

// NewBucketVocab creates a subword vocabulary with FNV-1a bucket hashing.
func NewBucketVocab(list []string, minN, maxN, bucketsExp int) (*SubwordVocab, error) {
	indexer, err := subword.NewHashIndexer(bucketsExp, minN, maxN)
	if err != nil {
		return nil, err
	}
	return NewSubwordVocab(list, indexer)
}

// Indexer returns the n-gram indexer.
func (v *SubwordVocab) Indexer() subword.Indexer { return v.indexer }

// Idx implements Vocab. An unknown word resolves only if at least one of its
// n-grams is indexable.
func (v *SubwordVocab) Idx(word string) (WordIndex, bool) {
	if i, ok := v.index[word]; ok {
		return ExactIndex(i), true
	}
	rows := v.SubwordIndices(word)
	if len(rows) == 0 {
		return WordIndex{}, false
	}
	return SubwordIndex(rows), true
}

// Resolve implements Vocab.
func (v *SubwordVocab) Resolve(word string) (WordIndex, error) {
	return resolve(v, word)
}

// VocabLen implements Vocab.
func (v *SubwordVocab) VocabLen() int {
	return len(v.list) + v.indexer.UpperBound()
}

// SubwordIndices returns the matrix rows of the indexable n-grams of word.
func (v *SubwordVocab) SubwordIndices(word string) []int {
	rows := subword.Indices(v.indexer, word)
	for i := range rows {
		rows[i] += len(v.list)
	}
	return rows
}

// NGramIndices returns the n-grams of word with their matrix rows.
func (v *SubwordVocab) NGramIndices(word string) []subword.NGramIndex {
	ngrams := subword.NGramIndices(v.indexer, word)
	for i := range ngrams {
		if ngrams[i].OK {
			ngrams[i].Index += len(v.list)
		}
	}
	return ngrams
}
