package similarity

import (
	"runtime"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/embedstore/internal/math32"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/vocab"
)

// minShardRows keeps small vocabularies on a single goroutine.
const minShardRows = 4096

// Result is a ranked word.
type Result struct {
	Word       string
	Similarity float32
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallelism bounds the number of shards scored concurrently.
// Values below 1 use GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		e.parallelism = n
	}
}

// Engine answers similarity and analogy queries over a vocabulary and its
// storage. It is safe for concurrent use as long as the storage stays open.
type Engine struct {
	vocab       vocab.Vocab
	storage     storage.Storage
	norms       *storage.Norms
	parallelism int
}

// New creates an engine. norms may be nil, in which case row norms are
// computed on the fly.
func New(v vocab.Vocab, s storage.Storage, norms *storage.Norms, opts ...Option) *Engine {
	e := &Engine{
		vocab:       v,
		storage:     s,
		norms:       norms,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) view() (storage.View, error) {
	v, ok := e.storage.(storage.View)
	if !ok {
		return nil, ErrUnsupportedOperation
	}
	return v, nil
}

// WordSimilarity returns the k words most similar to word. An exactly known
// query word is never returned.
func (e *Engine) WordSimilarity(word string, k int) ([]Result, error) {
	view, err := e.view()
	if err != nil {
		return nil, err
	}

	idx, err := e.vocab.Resolve(word)
	if err != nil {
		return nil, err
	}

	skip := roaring.New()
	if row, ok := idx.Word(); ok {
		skip.Add(uint32(row))
	}

	return e.rank(view, e.compose(view, idx), k, skip), nil
}

// EmbeddingSimilarity returns the k words most similar to query, never
// returning the words in skip.
func (e *Engine) EmbeddingSimilarity(query []float32, k int, skip ...string) ([]Result, error) {
	view, err := e.view()
	if err != nil {
		return nil, err
	}

	if _, dims := view.Shape(); len(query) != dims {
		return nil, &ErrDimensionMismatch{Expected: dims, Actual: len(query)}
	}

	return e.rank(view, query, k, e.skipRows(skip)), nil
}

// Mask selects which analogy inputs are excluded from the results.
type Mask [3]bool

// DefaultMask excludes all three inputs.
var DefaultMask = Mask{true, true, true}

// Analogy answers "a is to b as c is to ?" by ranking words against
// b − a + c. Every unresolvable input is reported in *ErrUnknownWords.
func (e *Engine) Analogy(a, b, c string, k int, mask Mask) ([]Result, error) {
	view, err := e.view()
	if err != nil {
		return nil, err
	}

	words := [3]string{a, b, c}
	var vecs [3][]float32
	var unknown []string
	for i, w := range words {
		idx, ok := e.vocab.Idx(w)
		if !ok {
			unknown = append(unknown, w)
			continue
		}
		vecs[i] = e.compose(view, idx)
	}
	if len(unknown) > 0 {
		return nil, &ErrUnknownWords{Words: unknown}
	}

	query := vecs[1]
	math32.SubInPlace(query, vecs[0])
	math32.AddInPlace(query, vecs[2])

	var skip []string
	for i, w := range words {
		if mask[i] {
			skip = append(skip, w)
		}
	}

	return e.rank(view, query, k, e.skipRows(skip)), nil
}

// compose returns an owned embedding for a resolved word: the row for known
// words, the mean of the subword rows otherwise.
func (e *Engine) compose(view storage.View, idx vocab.WordIndex) []float32 {
	_, dims := view.Shape()
	out := make([]float32, dims)
	if row, ok := idx.Word(); ok {
		copy(out, view.Row(row))
		return out
	}
	rows, _ := idx.Subwords()
	for _, r := range rows {
		math32.AddInPlace(out, view.Row(r))
	}
	math32.ScaleInPlace(out, 1/float32(len(rows)))
	return out
}

func (e *Engine) skipRows(words []string) *roaring.Bitmap {
	skip := roaring.New()
	for _, w := range words {
		idx, ok := e.vocab.Idx(w)
		if !ok {
			continue
		}
		if row, exact := idx.Word(); exact {
			skip.Add(uint32(row))
		}
	}
	return skip
}

// rank scores all word rows not in skip and returns the best k.
func (e *Engine) rank(view storage.View, query []float32, k int, skip *roaring.Bitmap) []Result {
	n := e.vocab.WordsLen()
	if k <= 0 || n == 0 {
		return []Result{}
	}
	k = min(k, n)

	queryNorm := math32.Norm(query)

	shards := min(e.parallelism, (n+minShardRows-1)/minShardRows)
	shards = max(shards, 1)
	shardSize := (n + shards - 1) / shards
	heaps := make([]*topK, shards)

	var g errgroup.Group
	for s := 0; s < shards; s++ {
		lo := s * shardSize
		hi := min(lo+shardSize, n)
		heap := newTopK(min(k, hi-lo))
		heaps[s] = heap
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if skip.Contains(uint32(i)) {
					continue
				}
				heap.push(candidate{row: i, score: e.cosine(view, query, queryNorm, i)})
			}
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]candidate, 0, min(shards*k, n))
	for _, h := range heaps {
		merged = append(merged, h.items...)
	}
	slices.SortFunc(merged, func(a, b candidate) int {
		switch {
		case worse(b, a):
			return -1
		case worse(a, b):
			return 1
		default:
			return 0
		}
	})
	if len(merged) > k {
		merged = merged[:k]
	}

	words := e.vocab.Words()
	results := make([]Result, len(merged))
	for i, c := range merged {
		results[i] = Result{Word: words[c.row], Similarity: c.score}
	}
	return results
}

// cosine is dot(q, row) / (|q| |row|), using the norm cache for the row when
// it covers it. A zero norm on either side yields 0.
func (e *Engine) cosine(view storage.View, query []float32, queryNorm float32, i int) float32 {
	row := view.Row(i)
	rowNorm, ok := e.norms.Lookup(i)
	if !ok {
		rowNorm = math32.Norm(row)
	}
	if queryNorm == 0 || rowNorm == 0 {
		return 0
	}
	return math32.Dot(query, row) / (queryNorm * rowNorm)
}
