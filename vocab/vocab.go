// Package vocab maps words to rows of an embedding matrix.
//
// A SimpleVocab only knows its words. A SubwordVocab additionally resolves
// unknown words to the rows of their character n-grams, which are stored after
// the word rows.
package vocab

import (
	"errors"
	"fmt"

	"github.com/hupe1980/embedstore/subword"
)

var (
	// ErrUnknownWord is returned when a word cannot be resolved to any row.
	ErrUnknownWord = errors.New("vocab: unknown word")
	// ErrUnsupportedOperation is returned for subword operations on a vocabulary
	// without subword information.
	ErrUnsupportedOperation = errors.New("vocab: unsupported operation")
	// ErrIndexOutOfRange is returned for a word index outside the vocabulary.
	ErrIndexOutOfRange = errors.New("vocab: index out of range")
	// ErrDuplicateWord is returned when a word list contains a word twice.
	ErrDuplicateWord = errors.New("vocab: duplicate word")
)

// Vocab is a vocabulary.
type Vocab interface {
	// Idx looks up a word. Known words resolve to their row, unknown words to
	// subword rows if the vocabulary supports them.
	Idx(word string) (WordIndex, bool)
	// Resolve is Idx returning ErrUnknownWord on a miss.
	Resolve(word string) (WordIndex, error)
	// ContainsExact reports whether word is a known word.
	ContainsExact(word string) bool
	// Words returns the known words in row order. The slice must not be modified.
	Words() []string
	// Word returns the word of row i.
	Word(i int) (string, error)
	// WordsLen returns the number of known words.
	WordsLen() int
	// VocabLen returns the number of rows the vocabulary can address.
	VocabLen() int
}

// WordIndex is the result of a lookup: exactly one of a word row or a
// non-empty list of subword rows.
type WordIndex struct {
	word     int
	subwords []int
	exact    bool
}

// ExactIndex returns a WordIndex for a known word.
func ExactIndex(row int) WordIndex {
	return WordIndex{word: row, exact: true}
}

// SubwordIndex returns a WordIndex for an unknown word composed from subwords.
func SubwordIndex(rows []int) WordIndex {
	return WordIndex{subwords: rows}
}

// Word returns the row of a known word.
func (w WordIndex) Word() (int, bool) {
	return w.word, w.exact
}

// Subwords returns the subword rows of an unknown word.
func (w WordIndex) Subwords() ([]int, bool) {
	return w.subwords, !w.exact
}

// words is the exact-word part shared by all vocabularies.
type words struct {
	list  []string
	index map[string]int
}

func newWords(list []string) (words, error) {
	index := make(map[string]int, len(list))
	for i, w := range list {
		if _, ok := index[w]; ok {
			return words{}, fmt.Errorf("%w: %q", ErrDuplicateWord, w)
		}
		index[w] = i
	}
	return words{list: list, index: index}, nil
}

func (w *words) Words() []string { return w.list }

func (w *words) WordsLen() int { return len(w.list) }

func (w *words) ContainsExact(word string) bool {
	_, ok := w.index[word]
	return ok
}

func (w *words) Word(i int) (string, error) {
	if i < 0 || i >= len(w.list) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(w.list))
	}
	return w.list[i], nil
}

func resolve(v Vocab, word string) (WordIndex, error) {
	idx, ok := v.Idx(word)
	if !ok {
		return WordIndex{}, fmt.Errorf("%w: %q", ErrUnknownWord, word)
	}
	return idx, nil
}

// NGramIndices returns the n-grams of word with their matrix rows. Only
// subword vocabularies support it.
func NGramIndices(v Vocab, word string) ([]subword.NGramIndex, error) {
	sv, ok := v.(*SubwordVocab)
	if !ok {
		return nil, fmt.Errorf("%w: n-gram indices need a subword vocabulary", ErrUnsupportedOperation)
	}
	return sv.NGramIndices(word), nil
}

// SubwordIndices returns the matrix rows of the indexable n-grams of word.
// Only subword vocabularies support it.
func SubwordIndices(v Vocab, word string) ([]int, error) {
	sv, ok := v.(*SubwordVocab)
	if !ok {
		return nil, fmt.Errorf("%w: subword indices need a subword vocabulary", ErrUnsupportedOperation)
	}
	return sv.SubwordIndices(word), nil
}
