package subword

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNGrams(t *testing.T) {
	t.Run("ByCodePoint", func(t *testing.T) {
		ngrams := NGrams("<Daniël>", 3, 6)
		assert.Len(t, ngrams, 18)
		assert.Contains(t, ngrams, "iël")
		assert.Contains(t, ngrams, "<Dani")
		assert.Contains(t, ngrams, "aniël>")
	})

	t.Run("Ordered", func(t *testing.T) {
		assert.Equal(t, []string{"ab", "bc", "abc"}, NGrams("abc", 2, 3))
	})

	t.Run("ShorterThanMin", func(t *testing.T) {
		assert.Empty(t, NGrams("ab", 3, 6))
	})

	t.Run("InvalidRange", func(t *testing.T) {
		assert.Nil(t, NGrams("abc", 0, 3))
		assert.Nil(t, NGrams("abc", 4, 3))
	})
}

func TestHashIndexer(t *testing.T) {
	idx, err := NewHashIndexer(DefaultBucketsExp, DefaultMinN, DefaultMaxN)
	require.NoError(t, err)
	assert.Equal(t, 1<<21, idx.UpperBound())

	fixtures := map[string]int{
		"Dan":    214157,
		"<Da":    2026735,
		"<Dani":  2065822,
		"Daniël": 1167494,
	}
	for ngram, want := range fixtures {
		got, ok := idx.Index(ngram)
		assert.True(t, ok)
		assert.Equal(t, want, got, ngram)
	}

	t.Run("WordIndices", func(t *testing.T) {
		got := Indices(idx, "hallo")
		sort.Ints(got)
		assert.Equal(t, []int{
			75867, 104120, 136555, 456131, 599360, 722393, 938007,
			985859, 1006102, 1163391, 1218704, 1321513, 1505861, 1892376,
		}, got)
	})

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, Indices(idx, "Daniël"), Indices(idx, "Daniël"))
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		_, err := NewHashIndexer(63, 3, 6)
		assert.ErrorIs(t, err, ErrInvalidBuckets)

		_, err = NewHashIndexer(21, 4, 3)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestFastTextIndexer(t *testing.T) {
	idx, err := NewFastTextIndexer(2000000, 3, 6)
	require.NoError(t, err)

	t.Run("Hash", func(t *testing.T) {
		// FNV-1a offset basis for the empty string.
		assert.Equal(t, uint32(2166136261), fastTextHash(""))
		// Non-ASCII bytes are sign-extended before mixing.
		assert.NotEqual(t, fastTextHash("ë"), fnv1aUnsigned("ë"))
		assert.Equal(t, fastTextHash("abc"), fnv1aUnsigned("abc"))
	})

	t.Run("IndexInRange", func(t *testing.T) {
		for _, ni := range NGramIndices(idx, "Daniël") {
			assert.True(t, ni.OK)
			assert.GreaterOrEqual(t, ni.Index, 0)
			assert.Less(t, ni.Index, idx.UpperBound())
		}
	})

	t.Run("BoundaryUnigrams", func(t *testing.T) {
		uni, err := NewFastTextIndexer(10, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, uni.NGrams("ab"))
	})

	t.Run("ZeroBuckets", func(t *testing.T) {
		none, err := NewFastTextIndexer(0, 3, 6)
		require.NoError(t, err)
		assert.Empty(t, Indices(none, "hallo"))
	})
}

func TestExplicitIndexer(t *testing.T) {
	idx, err := NewExplicitIndexer([]string{"<ha", "hal", "llo>"}, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.UpperBound())

	ngrams := NGramIndices(idx, "hallo")
	known := 0
	for _, ni := range ngrams {
		if ni.OK {
			known++
		}
	}
	assert.Equal(t, 3, known)
	assert.ElementsMatch(t, []int{0, 1, 2}, Indices(idx, "hallo"))
	assert.Empty(t, Indices(idx, "xyz"))

	t.Run("SharedIndices", func(t *testing.T) {
		shared, err := NewExplicitIndexerWithIndices([]string{"<ha", "hal"}, []int{4, 4}, 3, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, shared.UpperBound())
		assert.Equal(t, []int{4, 4}, Indices(shared, "hal"))
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := NewExplicitIndexer([]string{"abc", "abc"}, 3, 3)
		assert.ErrorIs(t, err, ErrDuplicateNGram)
	})
}

func fnv1aUnsigned(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
