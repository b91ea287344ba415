package vocab

// SimpleVocab is a vocabulary without subword fallback.
type SimpleVocab struct {
	words
}

var _ Vocab = (*SimpleVocab)(nil)

// NewSimpleVocab creates a vocabulary from unique words in row order.
func NewSimpleVocab(list []string) (*SimpleVocab, error) {
	w, err := newWords(list)
	if err != nil {
		return nil, err
	}
	return &SimpleVocab{words: w}, nil
}

// Idx implements Vocab.
func (v *SimpleVocab) Idx(word string) (WordIndex, bool) {
	if i, ok := v.index[word]; ok {
		return ExactIndex(i), true
	}
	return WordIndex{}, false
}

// Resolve implements Vocab.
func (v *SimpleVocab) Resolve(word string) (WordIndex, error) {
	return resolve(v, word)
}

// VocabLen implements Vocab.
func (v *SimpleVocab) VocabLen() int { return len(v.list) }
