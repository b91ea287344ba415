package compat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/hupe1980/embedstore/internal/math32"
	"github.com/hupe1980/embedstore/metadata"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/subword"
	"github.com/hupe1980/embedstore/vocab"
)

const (
	fastTextMagic   = 793712314
	fastTextVersion = 12
)

var (
	fastTextLosses = []string{"HierarchicalSoftmax", "NegativeSampling", "Softmax"}
	fastTextModels = []string{"CBOW", "SkipGram", "Supervised"}
)

// fastTextConfig is the fixed-size training configuration that follows the
// file header.
type fastTextConfig struct {
	Dims              int32
	WindowSize        int32
	Epoch             int32
	MinCount          int32
	NS                int32
	WordNGrams        int32
	Loss              int32
	Model             int32
	Buckets           int32
	MinN              int32
	MaxN              int32
	LRUpdateRate      int32
	SamplingThreshold float64
}

func (c fastTextConfig) metadata() (metadata.Metadata, error) {
	if c.Loss < 1 || int(c.Loss) > len(fastTextLosses) {
		return nil, fmt.Errorf("%w: unknown loss %d", ErrFormat, c.Loss)
	}
	if c.Model < 1 || int(c.Model) > len(fastTextModels) {
		return nil, fmt.Errorf("%w: unknown model %d", ErrFormat, c.Model)
	}
	return metadata.Metadata{
		"dims":               int64(c.Dims),
		"window_size":        int64(c.WindowSize),
		"epoch":              int64(c.Epoch),
		"min_count":          int64(c.MinCount),
		"ns":                 int64(c.NS),
		"word_ngrams":        int64(c.WordNGrams),
		"loss":               fastTextLosses[c.Loss-1],
		"model":              fastTextModels[c.Model-1],
		"buckets":            int64(c.Buckets),
		"min_n":              int64(c.MinN),
		"max_n":              int64(c.MaxN),
		"lr_update_rate":     int64(c.LRUpdateRate),
		"sampling_threshold": c.SamplingThreshold,
	}, nil
}

// fastTextReader reads little-endian fastText fields. The first error
// sticks.
type fastTextReader struct {
	r   *bufio.Reader
	err error
}

func (fr *fastTextReader) read(v any) {
	if fr.err != nil {
		return
	}
	if err := binary.Read(fr.r, binary.LittleEndian, v); err != nil {
		fr.err = fmt.Errorf("%w: %w", ErrFormat, err)
	}
}

func (fr *fastTextReader) word() string {
	if fr.err != nil {
		return ""
	}
	b, err := fr.r.ReadBytes(0)
	if err != nil {
		fr.err = fmt.Errorf("%w: word: %w", ErrFormat, err)
		return ""
	}
	b = b[:len(b)-1]
	if !utf8.Valid(b) {
		fr.err = fmt.Errorf("%w: invalid UTF-8 word", ErrFormat)
		return ""
	}
	return string(b)
}

// ReadFastText reads a fastText binary model. Word rows are precomputed as
// the mean of the word's own vector and its n-gram vectors, as fastText does
// at lookup time; n-gram rows are kept as stored. The training configuration
// becomes the metadata. Quantized and supervised models are rejected.
func ReadFastText(r io.Reader) (*Result, error) {
	fr := &fastTextReader{r: bufio.NewReaderSize(r, 64<<10)}

	var magic, version int32
	fr.read(&magic)
	fr.read(&version)
	if fr.err != nil {
		return nil, fr.err
	}
	if magic != fastTextMagic {
		return nil, fmt.Errorf("%w: fastText magic %d", ErrFormat, magic)
	}
	if version != fastTextVersion {
		return nil, fmt.Errorf("%w: fastText version %d", ErrFormat, version)
	}

	var cfg fastTextConfig
	fr.read(&cfg)
	if fr.err != nil {
		return nil, fr.err
	}
	md, err := cfg.metadata()
	if err != nil {
		return nil, err
	}
	indexer, err := subword.NewFastTextIndexer(int(cfg.Buckets), int(cfg.MinN), int(cfg.MaxN))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	words, err := readFastTextWords(fr)
	if err != nil {
		return nil, err
	}
	v, err := vocab.NewSubwordVocab(words, indexer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	s, err := readFastTextMatrix(fr, v.VocabLen(), int(cfg.Dims))
	if err != nil {
		return nil, err
	}
	precomputeWordRows(v, s)

	return &Result{Vocab: v, Storage: s, Norms: storage.ComputeNorms(s, len(words)), Metadata: md}, nil
}

func readFastTextWords(fr *fastTextReader) ([]string, error) {
	var size, nWords, nLabels int32
	var nTokens, pruneSize int64
	fr.read(&size)
	fr.read(&nWords)
	fr.read(&nLabels)
	fr.read(&nTokens)
	fr.read(&pruneSize)
	if fr.err != nil {
		return nil, fr.err
	}
	switch {
	case size < 0:
		return nil, fmt.Errorf("%w: vocabulary size %d", ErrFormat, size)
	case nLabels != 0:
		return nil, fmt.Errorf("%w: supervised models are not supported", ErrFormat)
	case pruneSize > 0:
		return nil, fmt.Errorf("%w: pruned vocabularies are not supported", ErrFormat)
	}

	words := make([]string, 0, min(int(size), maxPrealloc))
	for i := 0; i < int(size); i++ {
		w := fr.word()
		var freq int64
		var entryType int8
		fr.read(&freq)
		fr.read(&entryType)
		if fr.err != nil {
			return nil, fr.err
		}
		if entryType != 0 {
			return nil, fmt.Errorf("%w: entry %q is not a word", ErrFormat, w)
		}
		words = append(words, w)
	}
	return words, nil
}

func readFastTextMatrix(fr *fastTextReader, wantRows, wantDims int) (*storage.NdArray, error) {
	var quantized bool
	var rows, cols int64
	fr.read(&quantized)
	fr.read(&rows)
	fr.read(&cols)
	if fr.err != nil {
		return nil, fr.err
	}
	if quantized {
		return nil, fmt.Errorf("%w: quantized fastText models are not supported", ErrFormat)
	}
	if rows != int64(wantRows) || cols != int64(wantDims) {
		return nil, fmt.Errorf("%w: matrix is %d×%d, want %d×%d", ErrFormat, rows, cols, wantRows, wantDims)
	}
	if cols > 0 && rows > math.MaxInt/4/cols {
		return nil, fmt.Errorf("%w: matrix of %d×%d is too large", ErrFormat, rows, cols)
	}

	n := int(rows * cols)
	data := prealloc(int(rows), int(cols))
	buf := make([]byte, 4*min(n, 1<<14))
	for left := n; left > 0; {
		m := min(left, len(buf)/4)
		if _, err := io.ReadFull(fr.r, buf[:4*m]); err != nil {
			return nil, fmt.Errorf("%w: matrix: %w", ErrFormat, err)
		}
		for j := 0; j < m; j++ {
			data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:])))
		}
		left -= m
	}

	s, err := storage.NewNdArray(data, int(rows), int(cols))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return s, nil
}

// precomputeWordRows replaces every word row with the mean of itself and the
// rows of the word's n-grams. N-gram rows are never modified.
func precomputeWordRows(v *vocab.SubwordVocab, s *storage.NdArray) {
	for i, w := range v.Words() {
		row := s.Row(i)
		ngrams := v.SubwordIndices(w)
		for _, r := range ngrams {
			math32.AddInPlace(row, s.Row(r))
		}
		math32.ScaleInPlace(row, 1/float32(len(ngrams)+1))
	}
}
