package embedstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/embedstore/internal/math32"
	"github.com/hupe1980/embedstore/metadata"
	"github.com/hupe1980/embedstore/similarity"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/subword"
	"github.com/hupe1980/embedstore/vocab"
)

// WordSimilarity is a ranked word returned by similarity and analogy queries.
type WordSimilarity = similarity.Result

// EmbeddingWithNorm is an embedding together with the L2 norm of the vector
// it was taken from.
type EmbeddingWithNorm struct {
	Embedding []float32
	Norm      float32
}

// Embeddings couples a vocabulary with its storage, an optional norm cache
// and optional metadata.
//
// Embeddings is safe for concurrent use. Lookups and queries share a read
// lock; replacing the metadata takes the write lock.
type Embeddings struct {
	mu sync.RWMutex

	vocab    vocab.Vocab
	storage  storage.Storage
	norms    *storage.Norms
	metadata metadata.Metadata
	engine   *similarity.Engine

	opts options

	// reserved is the heap budget taken from the resource controller for
	// owned storage. It is returned on Close.
	reserved int64
	closed   bool
}

// New assembles embeddings from their parts. The storage must have one row
// per vocabulary index and norms, if given, one value per known word.
// Embeddings takes ownership of s and closes it on Close.
func New(v vocab.Vocab, s storage.Storage, norms *storage.Norms, md metadata.Metadata, opts ...Option) (*Embeddings, error) {
	return newEmbeddings(v, s, norms, md, applyOptions(opts))
}

func newEmbeddings(v vocab.Vocab, s storage.Storage, norms *storage.Norms, md metadata.Metadata, o options) (*Embeddings, error) {
	if v == nil || s == nil {
		return nil, fmt.Errorf("embedstore: vocabulary and storage are required")
	}
	if rows, _ := s.Shape(); rows != v.VocabLen() {
		return nil, &ErrInvalidShape{Expected: v.VocabLen(), Actual: rows}
	}
	if norms != nil && norms.Len() != v.WordsLen() {
		return nil, &ErrInvalidShape{Expected: v.WordsLen(), Actual: norms.Len()}
	}

	var engineOpts []similarity.Option
	if o.parallelism != 0 {
		engineOpts = append(engineOpts, similarity.WithParallelism(o.parallelism))
	}

	// Normalized rows carry their original norms in the cache, which must
	// not be used as row norms for cosine similarity.
	rowNorms := norms
	if norms != nil && storage.RowsNormalized(s, v.WordsLen()) {
		o.logger.Debug("rows are normalized, norm cache holds original norms")
		rowNorms = nil
	}

	return &Embeddings{
		vocab:    v,
		storage:  s,
		norms:    norms,
		metadata: md.Clone(),
		engine:   similarity.New(v, s, rowNorms, engineOpts...),
		opts:     o,
	}, nil
}

// Vocab returns the vocabulary.
func (e *Embeddings) Vocab() vocab.Vocab { return e.vocab }

// Storage returns the storage. Its rows stay valid until Close.
func (e *Embeddings) Storage() storage.Storage { return e.storage }

// Norms returns the norm cache, or nil if there is none.
func (e *Embeddings) Norms() *storage.Norms { return e.norms }

// Shape returns the number of storage rows and the dimensionality.
func (e *Embeddings) Shape() (rows, dims int) { return e.storage.Shape() }

// Dims returns the dimensionality of the embeddings.
func (e *Embeddings) Dims() int {
	_, dims := e.storage.Shape()
	return dims
}

// Len returns the number of known words.
func (e *Embeddings) Len() int { return e.vocab.WordsLen() }

// Contains reports whether word resolves to an embedding, either as a known
// word or through its subwords. Use Vocab().ContainsExact for known words only.
func (e *Embeddings) Contains(word string) bool {
	_, ok := e.vocab.Idx(word)
	return ok
}

// Viewable reports whether the storage exposes rows without copying, which
// similarity queries require.
func (e *Embeddings) Viewable() bool {
	_, ok := e.storage.(storage.View)
	return ok
}

// Embedding returns the embedding of word: a copy of its row for known words,
// the mean of its subword rows otherwise. ok is false if the word cannot be
// resolved.
func (e *Embeddings) Embedding(word string) (embedding []float32, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, ok := e.lookup(word)
	if !ok {
		return nil, false
	}
	out := make([]float32, e.Dims())
	e.compose(idx, out)
	return out, true
}

// EmbeddingInto writes the embedding of word into dst, which must hold
// exactly Dims values. It reports whether the word was resolved; dst is left
// untouched otherwise.
func (e *Embeddings) EmbeddingInto(word string, dst []float32) (bool, error) {
	if dims := e.Dims(); len(dst) != dims {
		return false, &ErrInvalidShape{Expected: dims, Actual: len(dst)}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, ok := e.lookup(word)
	if !ok {
		return false, nil
	}
	e.compose(idx, dst)
	return true, nil
}

// Get returns the embedding of word, failing with ErrUnknownWord if it
// cannot be resolved.
func (e *Embeddings) Get(word string) ([]float32, error) {
	v, ok := e.Embedding(word)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWord, word)
	}
	return v, nil
}

// Default is the fallback of EmbeddingOrDefault.
type Default struct {
	fill   float32
	vector []float32
	kind   defaultKind
}

type defaultKind int

const (
	defaultNone defaultKind = iota
	defaultFill
	defaultVector
)

// DefaultNone returns nil for unresolved words.
func DefaultNone() Default { return Default{kind: defaultNone} }

// DefaultFill returns a vector with every component set to v for unresolved
// words.
func DefaultFill(v float32) Default { return Default{kind: defaultFill, fill: v} }

// DefaultVector returns a copy of vec for unresolved words. vec must have
// Dims components.
func DefaultVector(vec []float32) Default { return Default{kind: defaultVector, vector: vec} }

// EmbeddingOrDefault returns the embedding of word, or the default if the
// word cannot be resolved. A vector default of the wrong length is rejected
// with *ErrInvalidShape whether or not it is needed.
func (e *Embeddings) EmbeddingOrDefault(word string, def Default) ([]float32, error) {
	dims := e.Dims()
	if def.kind == defaultVector && len(def.vector) != dims {
		return nil, &ErrInvalidShape{Expected: dims, Actual: len(def.vector)}
	}

	if v, ok := e.Embedding(word); ok {
		return v, nil
	}

	switch def.kind {
	case defaultFill:
		out := make([]float32, dims)
		for i := range out {
			out[i] = def.fill
		}
		return out, nil
	case defaultVector:
		return append([]float32(nil), def.vector...), nil
	default:
		return nil, nil
	}
}

// EmbeddingWithNorm returns the embedding of word with its norm. For known
// words the norm is taken from the norm cache when present; composed
// embeddings report the norm of the composed vector.
func (e *Embeddings) EmbeddingWithNorm(word string) (EmbeddingWithNorm, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, ok := e.lookup(word)
	if !ok {
		return EmbeddingWithNorm{}, false
	}
	out := make([]float32, e.Dims())
	e.compose(idx, out)

	if row, exact := idx.Word(); exact {
		if norm, cached := e.norms.Lookup(row); cached {
			return EmbeddingWithNorm{Embedding: out, Norm: norm}, true
		}
	}
	return EmbeddingWithNorm{Embedding: out, Norm: math32.Norm(out)}, true
}

// Row returns a copy of storage row i. Unlike lookups by word, i may address
// subword rows.
func (e *Embeddings) Row(i int) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if rows, _ := e.storage.Shape(); i < 0 || i >= rows {
		return nil, fmt.Errorf("%w: row %d not in [0, %d)", ErrIndexOutOfRange, i, rows)
	}
	return e.storage.Embedding(i), nil
}

// WordAt returns the known word stored in row i.
func (e *Embeddings) WordAt(i int) (string, error) {
	w, err := e.vocab.Word(i)
	return w, translateError(err)
}

// SubwordIndices returns the storage rows of the subwords of word. It fails
// with ErrUnsupportedOperation if the vocabulary has no subword information.
func (e *Embeddings) SubwordIndices(word string) ([]int, error) {
	rows, err := vocab.SubwordIndices(e.vocab, word)
	return rows, translateError(err)
}

// NGramIndices returns the n-grams of word with their storage rows, if any.
// It fails with ErrUnsupportedOperation if the vocabulary has no subword
// information.
func (e *Embeddings) NGramIndices(word string) ([]subword.NGramIndex, error) {
	ngrams, err := vocab.NGramIndices(e.vocab, word)
	return ngrams, translateError(err)
}

// MatrixCopy materializes the whole storage as a row-major matrix. The
// allocation is charged against the resource controller's memory budget for
// the duration of the copy.
func (e *Embeddings) MatrixCopy() ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rows, dims := e.storage.Shape()
	bytes := int64(rows) * int64(dims) * 4
	if err := e.opts.resources.TryAcquireMemory(bytes); err != nil {
		return nil, err
	}
	defer e.opts.resources.ReleaseMemory(bytes)

	return storage.CopyMatrix(e.storage), nil
}

// Metadata returns a copy of the metadata and whether there is any.
func (e *Embeddings) Metadata() (metadata.Metadata, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.metadata == nil {
		return nil, false
	}
	return e.metadata.Clone(), true
}

// SetMetadata replaces the metadata. nil removes it.
func (e *Embeddings) SetMetadata(md metadata.Metadata) {
	md = md.Clone()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.metadata = md
}

// SetMetadataTOML parses text as a TOML document and replaces the metadata
// with it. On failure the metadata is left unchanged.
func (e *Embeddings) SetMetadataTOML(text string) error {
	md, err := metadata.Parse(text)
	if err != nil {
		return translateError(err)
	}
	e.SetMetadata(md)
	return nil
}

// WordSimilarity returns the k known words most similar to word by cosine
// similarity, best first. The query word itself is excluded when it is a
// known word.
func (e *Embeddings) WordSimilarity(word string, k int) ([]WordSimilarity, error) {
	return e.query(QueryWordSimilarity, k, func() ([]WordSimilarity, error) {
		return e.engine.WordSimilarity(word, k)
	})
}

// EmbeddingSimilarity returns the k known words most similar to query, best
// first, never returning a word in skip.
func (e *Embeddings) EmbeddingSimilarity(query []float32, k int, skip ...string) ([]WordSimilarity, error) {
	return e.query(QueryEmbeddingSimilarity, k, func() ([]WordSimilarity, error) {
		return e.engine.EmbeddingSimilarity(query, k, skip...)
	})
}

type analogyOptions struct {
	mask similarity.Mask
}

// AnalogyOption configures an analogy query.
type AnalogyOption func(*analogyOptions)

// WithMask selects which of the three analogy inputs are excluded from the
// results. By default all three are.
func WithMask(a, b, c bool) AnalogyOption {
	return func(o *analogyOptions) {
		o.mask = similarity.Mask{a, b, c}
	}
}

// Analogy answers "a is to b as c is to ?" with the k known words closest to
// b − a + c. If any input cannot be resolved the error is *ErrUnknownWords
// listing all of them.
func (e *Embeddings) Analogy(a, b, c string, k int, opts ...AnalogyOption) ([]WordSimilarity, error) {
	o := analogyOptions{mask: similarity.DefaultMask}
	for _, opt := range opts {
		opt(&o)
	}
	return e.query(QueryAnalogy, k, func() ([]WordSimilarity, error) {
		return e.engine.Analogy(a, b, c, k, o.mask)
	})
}

func (e *Embeddings) query(kind QueryKind, k int, run func() ([]WordSimilarity, error)) ([]WordSimilarity, error) {
	ctx := context.Background()

	if err := e.opts.resources.AcquireQuery(ctx); err != nil {
		return nil, err
	}
	defer e.opts.resources.ReleaseQuery()

	e.mu.RLock()
	defer e.mu.RUnlock()

	start := time.Now()
	results, err := run()
	err = translateError(err)

	e.opts.metricsCollector.RecordQuery(kind, k, time.Since(start), err)
	e.opts.logger.LogQuery(ctx, kind, k, len(results), err)

	if err != nil {
		return nil, err
	}
	return results, nil
}

// lookup resolves word and records how it was answered.
func (e *Embeddings) lookup(word string) (vocab.WordIndex, bool) {
	idx, ok := e.vocab.Idx(word)
	switch {
	case !ok:
		e.opts.metricsCollector.RecordLookup(LookupMiss)
	case isExact(idx):
		e.opts.metricsCollector.RecordLookup(LookupExact)
	default:
		e.opts.metricsCollector.RecordLookup(LookupSubword)
	}
	return idx, ok
}

func isExact(idx vocab.WordIndex) bool {
	_, ok := idx.Word()
	return ok
}

// compose writes the embedding of a resolved word into dst: its row, or the
// mean of its subword rows.
func (e *Embeddings) compose(idx vocab.WordIndex, dst []float32) {
	if row, ok := idx.Word(); ok {
		e.storage.EmbeddingInto(row, dst)
		return
	}

	rows, _ := idx.Subwords()
	clear(dst)
	if view, ok := e.storage.(storage.View); ok {
		for _, r := range rows {
			math32.AddInPlace(dst, view.Row(r))
		}
	} else {
		buf := make([]float32, len(dst))
		for _, r := range rows {
			e.storage.EmbeddingInto(r, buf)
			math32.AddInPlace(dst, buf)
		}
	}
	math32.ScaleInPlace(dst, 1/float32(len(rows)))
}

func storageKind(s storage.Storage) string {
	switch s.(type) {
	case *storage.NdArray:
		return "ndarray"
	case *storage.MmapArray:
		return "mmap"
	case *storage.QuantizedArray:
		return "quantized"
	default:
		return fmt.Sprintf("%T", s)
	}
}
