package similarity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/embedstore/quantization"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/testutil"
	"github.com/hupe1980/embedstore/vocab"
)

func newEngine(t *testing.T, words []string, rows [][]float32, opts ...Option) *Engine {
	t.Helper()
	v, err := vocab.NewSimpleVocab(words)
	require.NoError(t, err)
	s, err := storage.NewNdArrayFromRows(rows)
	require.NoError(t, err)
	return New(v, s, nil, opts...)
}

func wordsOf(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Word
	}
	return out
}

func TestWordSimilarity(t *testing.T) {
	e := newEngine(t,
		[]string{"cat", "dog", "car", "kitten"},
		[][]float32{
			{1, 0.1, 0},
			{0.9, 0.3, 0},
			{0, 0, 1},
			{1, 0.1, 0},
		})

	res, err := e.WordSimilarity("cat", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"kitten", "dog", "car"}, wordsOf(res))
	assert.InDelta(t, 1.0, res[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, res[2].Similarity, 1e-6)

	t.Run("KZero", func(t *testing.T) {
		res, err := e.WordSimilarity("cat", 0)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("KLargerThanCandidates", func(t *testing.T) {
		res, err := e.WordSimilarity("cat", 100)
		require.NoError(t, err)
		assert.Len(t, res, 3)
		assert.NotContains(t, wordsOf(res), "cat")
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := e.WordSimilarity("horse", 3)
		assert.ErrorIs(t, err, vocab.ErrUnknownWord)
	})

	t.Run("TiesByRow", func(t *testing.T) {
		e := newEngine(t,
			[]string{"q", "a", "b", "c"},
			[][]float32{{1, 0}, {0, 1}, {0, 2}, {0, 3}})
		res, err := e.WordSimilarity("q", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, wordsOf(res))
	})
}

func TestWordSimilarity_Subword(t *testing.T) {
	words := []string{"hallo", "welt"}
	v, err := vocab.NewBucketVocab(words, 3, 6, 4)
	require.NoError(t, err)

	rng := testutil.NewRNG(1)
	s, err := storage.NewNdArray(rng.Matrix(v.VocabLen(), 8), v.VocabLen(), 8)
	require.NoError(t, err)

	e := New(v, s, nil)
	res, err := e.WordSimilarity("hallo!", 5)
	require.NoError(t, err)
	// Composed queries exclude nothing.
	assert.ElementsMatch(t, words, wordsOf(res))
}

func TestEmbeddingSimilarity(t *testing.T) {
	e := newEngine(t,
		[]string{"a", "b", "c"},
		[][]float32{{1, 0}, {0.8, 0.2}, {0, 1}})

	res, err := e.EmbeddingSimilarity([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, wordsOf(res))

	t.Run("Skip", func(t *testing.T) {
		res, err := e.EmbeddingSimilarity([]float32{1, 0}, 3, "a", "unknown")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, wordsOf(res))
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := e.EmbeddingSimilarity([]float32{1, 0, 0}, 2)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
	})

	t.Run("ZeroQuery", func(t *testing.T) {
		res, err := e.EmbeddingSimilarity([]float32{0, 0}, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, wordsOf(res))
		for _, r := range res {
			assert.Zero(t, r.Similarity)
		}
	})
}

func TestNormCache(t *testing.T) {
	v, err := vocab.NewSimpleVocab([]string{"a", "b"})
	require.NoError(t, err)
	s, err := storage.NewNdArrayFromRows([][]float32{{2, 0}, {0, 1}})
	require.NoError(t, err)

	// The cache is trusted over the stored rows.
	e := New(v, s, storage.NewNorms([]float32{4, 1}))
	res, err := e.EmbeddingSimilarity([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res[0].Similarity, 1e-6)
}

func TestAnalogy(t *testing.T) {
	e := newEngine(t,
		[]string{"king", "man", "woman", "queen", "apple"},
		[][]float32{
			{1, 1, 0},
			{1, 0, 0},
			{0, 0, 1},
			{0, 1, 1},
			{-1, -1, -1},
		})

	res, err := e.Analogy("man", "king", "woman", 1, DefaultMask)
	require.NoError(t, err)
	assert.Equal(t, []string{"queen"}, wordsOf(res))
	assert.InDelta(t, 1.0, res[0].Similarity, 1e-6)

	t.Run("DefaultMaskExcludesInputs", func(t *testing.T) {
		res, err := e.Analogy("man", "king", "woman", 5, DefaultMask)
		require.NoError(t, err)
		assert.Equal(t, []string{"queen", "apple"}, wordsOf(res))
	})

	t.Run("UnmaskedInputsMayAppear", func(t *testing.T) {
		res, err := e.Analogy("man", "king", "woman", 5, Mask{true, false, false})
		require.NoError(t, err)
		assert.Contains(t, wordsOf(res), "king")
		assert.Contains(t, wordsOf(res), "woman")
		assert.NotContains(t, wordsOf(res), "man")
	})

	t.Run("UnknownWords", func(t *testing.T) {
		_, err := e.Analogy("man", "prince", "girl", 1, DefaultMask)
		var uw *ErrUnknownWords
		require.ErrorAs(t, err, &uw)
		assert.Equal(t, []string{"prince", "girl"}, uw.Words)
		assert.True(t, errors.Is(err, vocab.ErrUnknownWord))
	})
}

func TestQuantizedStorageUnsupported(t *testing.T) {
	v, err := vocab.NewSimpleVocab([]string{"a"})
	require.NoError(t, err)
	pq, err := quantization.NewProductQuantizerFromCentroids(2, 1, 1, []float32{1, 0}, nil)
	require.NoError(t, err)
	q, err := storage.NewQuantizedArray(pq, []byte{0}, nil)
	require.NoError(t, err)

	e := New(v, q, nil)
	_, err = e.WordSimilarity("a", 1)
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	_, err = e.EmbeddingSimilarity([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	_, err = e.Analogy("a", "a", "a", 1, DefaultMask)
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestRankMatchesBruteForce(t *testing.T) {
	const n, dims, k = 10000, 16, 10
	rng := testutil.NewRNG(42)
	words := rng.Words(n)
	rows := rng.GaussianVectors(n, dims)
	query := rng.GaussianVectors(1, dims)[0]

	serial := newEngine(t, words, rows, WithParallelism(1))
	parallel := newEngine(t, words, rows, WithParallelism(8))

	got, err := parallel.EmbeddingSimilarity(query, k)
	require.NoError(t, err)
	again, err := serial.EmbeddingSimilarity(query, k)
	require.NoError(t, err)
	assert.Equal(t, again, got, "sharding must not change the ranking")

	want := testutil.BruteForceCosine(rows, query, k, nil)
	require.Len(t, got, k)
	assert.Equal(t, words[want[0].Row], got[0].Word)
	assert.InDelta(t, want[0].Similarity, got[0].Similarity, 1e-5)

	gotRows := make([]testutil.Result, len(got))
	index := make(map[string]int, n)
	for i, w := range words {
		index[w] = i
	}
	for i, r := range got {
		gotRows[i] = testutil.Result{Row: index[r.Word], Similarity: r.Similarity}
	}
	assert.GreaterOrEqual(t, testutil.Recall(want, gotRows), 0.9)
}

func TestRank_KBeyondCandidates(t *testing.T) {
	const n = 5000
	rng := testutil.NewRNG(3)
	words := rng.Words(n)
	e := newEngine(t, words, rng.GaussianVectors(n, 4), WithParallelism(4))

	for _, k := range []int{n + 1, 1 << 40, math.MaxInt} {
		res, err := e.WordSimilarity(words[0], k)
		require.NoError(t, err)
		assert.Len(t, res, n-1)
		assert.NotContains(t, wordsOf(res), words[0])
	}
}

func TestTopK(t *testing.T) {
	h := newTopK(3)
	for i, s := range []float32{0.1, 0.9, 0.5, 0.9, 0.2, 0.7} {
		h.push(candidate{row: i, score: s})
	}
	assert.Len(t, h.items, 3)

	kept := map[int]bool{}
	for _, c := range h.items {
		kept[c.row] = true
	}
	assert.Equal(t, map[int]bool{1: true, 3: true, 5: true}, kept)

	empty := newTopK(0)
	empty.push(candidate{row: 0, score: 1})
	assert.Empty(t, empty.items)
}
