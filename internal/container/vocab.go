package container

import (
	"fmt"
	"io"

	"github.com/hupe1980/embedstore/subword"
	"github.com/hupe1980/embedstore/vocab"
)

func wordsLen(words []string) int64 {
	n := int64(0)
	for _, w := range words {
		n += 4 + int64(len(w))
	}
	return n
}

func vocabChunkID(v vocab.Vocab) (ChunkID, error) {
	switch v := v.(type) {
	case *vocab.SimpleVocab:
		return ChunkSimpleVocab, nil
	case *vocab.SubwordVocab:
		switch v.Indexer().(type) {
		case *subword.HashIndexer:
			return ChunkBucketSubwordVocab, nil
		case *subword.FastTextIndexer:
			return ChunkFastTextSubwordVocab, nil
		case *subword.ExplicitIndexer:
			return ChunkExplicitSubwordVocab, nil
		}
		return 0, fmt.Errorf("%w: indexer %T", ErrUnsupported, v.Indexer())
	default:
		return 0, fmt.Errorf("%w: vocabulary %T", ErrUnsupported, v)
	}
}

func writeVocab(e *encoder, v vocab.Vocab) error {
	id, err := vocabChunkID(v)
	if err != nil {
		return err
	}
	words := v.Words()

	switch id {
	case ChunkSimpleVocab:
		e.chunk(id, 8+wordsLen(words))
		e.u64(uint64(len(words)))

	case ChunkBucketSubwordVocab, ChunkFastTextSubwordVocab:
		indexer := v.(*vocab.SubwordVocab).Indexer()
		buckets := uint32(indexer.UpperBound())
		if h, ok := indexer.(*subword.HashIndexer); ok {
			buckets = uint32(h.BucketsExp())
		}
		e.chunk(id, 8+12+wordsLen(words))
		e.u64(uint64(len(words)))
		e.u32(uint32(indexer.MinN()))
		e.u32(uint32(indexer.MaxN()))
		e.u32(buckets)

	case ChunkExplicitSubwordVocab:
		indexer := v.(*vocab.SubwordVocab).Indexer().(*subword.ExplicitIndexer)
		ngrams := indexer.NGramList()
		e.chunk(id, 16+8+wordsLen(words)+wordsLen(ngrams)+8*int64(len(ngrams)))
		e.u64(uint64(len(words)))
		e.u64(uint64(len(ngrams)))
		e.u32(uint32(indexer.MinN()))
		e.u32(uint32(indexer.MaxN()))
		for _, w := range words {
			e.str(w)
		}
		for _, ngram := range ngrams {
			idx, _ := indexer.Index(ngram)
			e.str(ngram)
			e.u64(uint64(idx))
		}
		return e.err
	}

	for _, w := range words {
		e.str(w)
	}
	return e.err
}

// ReadVocab decodes a vocabulary chunk.
func ReadVocab(r io.ReaderAt, c Chunk) (vocab.Vocab, error) {
	d := newDecoder(r, c)

	var (
		v   vocab.Vocab
		err error
	)
	switch c.ID {
	case ChunkSimpleVocab:
		words := readWords(d, d.count(4))
		if d.err != nil {
			return nil, d.err
		}
		v, err = vocab.NewSimpleVocab(words)

	case ChunkBucketSubwordVocab, ChunkFastTextSubwordVocab:
		n := d.count(4)
		minN, maxN, buckets := int(d.u32()), int(d.u32()), int(d.u32())
		words := readWords(d, n)
		if d.err != nil {
			return nil, d.err
		}
		var indexer subword.Indexer
		if c.ID == ChunkBucketSubwordVocab {
			indexer, err = subword.NewHashIndexer(buckets, minN, maxN)
		} else {
			indexer, err = subword.NewFastTextIndexer(buckets, minN, maxN)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		v, err = vocab.NewSubwordVocab(words, indexer)

	case ChunkExplicitSubwordVocab:
		n := d.count(4)
		nNGrams := d.count(12)
		minN, maxN := int(d.u32()), int(d.u32())
		words := readWords(d, n)
		ngrams := make([]string, 0, nNGrams)
		indices := make([]int, 0, nNGrams)
		for i := 0; i < nNGrams && d.err == nil; i++ {
			ngrams = append(ngrams, d.str())
			indices = append(indices, int(d.u64()))
		}
		if d.err != nil {
			return nil, d.err
		}
		indexer, ierr := subword.NewExplicitIndexerWithIndices(ngrams, indices, minN, maxN)
		if ierr != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, ierr)
		}
		v, err = vocab.NewSubwordVocab(words, indexer)

	default:
		return nil, fmt.Errorf("%w: %s is not a vocabulary chunk", ErrFormat, c.ID)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return v, nil
}

func readWords(d *decoder, n int) []string {
	words := make([]string, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		words = append(words, d.str())
	}
	return words
}
