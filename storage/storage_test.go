package storage

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/embedstore/internal/mmap"
	"github.com/hupe1980/embedstore/quantization"
)

func TestNdArray(t *testing.T) {
	a, err := NewNdArray([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)

	rows, dims := a.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, dims)
	assert.Equal(t, []float32{3, 4}, a.Row(1))

	t.Run("EmbeddingIsCopy", func(t *testing.T) {
		e := a.Embedding(0)
		e[0] = 100
		assert.Equal(t, float32(1), a.Row(0)[0])
	})

	t.Run("RowCannotGrowIntoNext", func(t *testing.T) {
		r := a.Row(0)
		assert.Equal(t, 2, cap(r))
	})

	t.Run("OutOfRangePanics", func(t *testing.T) {
		assert.Panics(t, func() { a.Row(3) })
		assert.Panics(t, func() { a.Embedding(-1) })
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		_, err := NewNdArray([]float32{1, 2, 3}, 2, 2)
		assert.ErrorIs(t, err, ErrShape)

		_, err = NewNdArrayFromRows([][]float32{{1, 2}, {3}})
		assert.ErrorIs(t, err, ErrShape)
	})

	assert.NoError(t, a.Close())
}

func TestCopyMatrix(t *testing.T) {
	data := []float32{1, 2, 3, 4}
	a, err := NewNdArray(data, 2, 2)
	require.NoError(t, err)

	m := CopyMatrix(a)
	assert.Equal(t, data, m)
	m[0] = 42
	assert.Equal(t, float32(1), data[0])
}

func TestNorms(t *testing.T) {
	a, err := NewNdArrayFromRows([][]float32{{3, 4}, {0, 0}, {1, 0}})
	require.NoError(t, err)

	norms := ComputeNorms(a, 2)
	assert.Equal(t, 2, norms.Len())
	assert.Equal(t, float32(5), norms.Norm(0))
	assert.Equal(t, float32(0), norms.Norm(1))

	// Rows outside the cache and absent caches default to 1.
	assert.Equal(t, float32(1), norms.Norm(2))
	var absent *Norms
	assert.Equal(t, float32(1), absent.Norm(0))
	assert.Equal(t, 0, absent.Len())

	_, ok := absent.Lookup(0)
	assert.False(t, ok)
	v, ok := norms.Lookup(0)
	assert.True(t, ok)
	assert.Equal(t, float32(5), v)
}

func TestRowsNormalized(t *testing.T) {
	a, err := NewNdArrayFromRows([][]float32{{3, 4}, {0, 0}, {1, 0}})
	require.NoError(t, err)
	assert.False(t, RowsNormalized(a, 3))
	assert.False(t, RowsNormalized(a, 0))

	unit, err := NewNdArrayFromRows([][]float32{{0.6, 0.8}, {0, 0}, {1, 0}, {3, 4}})
	require.NoError(t, err)
	assert.True(t, RowsNormalized(unit, 3), "rows past n are not inspected")
	assert.False(t, RowsNormalized(unit, 4))
}

func TestQuantizedArray(t *testing.T) {
	centroids := []float32{
		0, 1,
		1, 0,
		2, 2,
		3, 3,
	}
	pq, err := quantization.NewProductQuantizerFromCentroids(4, 2, 2, centroids, nil)
	require.NoError(t, err)

	q, err := NewQuantizedArray(pq, []byte{0, 1, 1, 0}, []float32{2, 1})
	require.NoError(t, err)

	rows, dims := q.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 4, dims)

	assert.Equal(t, []float32{0, 2, 6, 6}, q.Embedding(0))
	assert.Equal(t, []float32{1, 0, 2, 2}, q.Embedding(1))
	assert.Panics(t, func() { q.Embedding(2) })

	_, isView := Storage(q).(View)
	assert.False(t, isView)

	assert.Equal(t, []float32{0, 2, 6, 6, 1, 0, 2, 2}, CopyMatrix(q))

	t.Run("NormsComputedFromReconstruction", func(t *testing.T) {
		norms := ComputeNorms(q, 2)
		assert.InDelta(t, math.Sqrt(4+36+36), norms.Norm(0), 1e-5)
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		_, err := NewQuantizedArray(pq, []byte{0, 1, 1}, nil)
		assert.ErrorIs(t, err, ErrShape)
		_, err = NewQuantizedArray(pq, []byte{0, 1}, []float32{1, 2})
		assert.ErrorIs(t, err, ErrShape)
	})
}

func TestQuantize(t *testing.T) {
	a, err := NewNdArrayFromRows([][]float32{
		{2, 0, 0, 0},
		{0, 3, 0, 0},
		{0, 0, 4, 0},
	})
	require.NoError(t, err)

	cfg := QuantizeConfig{Subquantizers: 2, CentroidBits: 2, Normalize: true, Seed: 1}
	q, err := Quantize(a, cfg)
	require.NoError(t, err)

	// Three rows fit in four centroids, so reconstruction is exact.
	for i := 0; i < 3; i++ {
		assert.InDeltaSlice(t, a.Row(i), q.Embedding(i), 1e-6)
	}
	assert.Equal(t, []float32{2, 3, 4}, q.Norms())
	assert.Len(t, q.Codes(), 6)

	t.Run("InvalidBits", func(t *testing.T) {
		_, err := Quantize(a, QuantizeConfig{Subquantizers: 2, CentroidBits: 9})
		assert.ErrorIs(t, err, quantization.ErrInvalidConfig)
	})

	t.Run("Default", func(t *testing.T) {
		cfg := DefaultQuantizeConfig(4)
		assert.Equal(t, 1, cfg.Subquantizers)
		assert.Equal(t, 8, cfg.CentroidBits)
	})
}

func TestMmapArray(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6}
	buf := make([]byte, 8+len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[8+i*4:], math.Float32bits(v))
	}
	path := filepath.Join(t.TempDir(), "matrix")
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	m, err := mmap.Open(path)
	require.NoError(t, err)

	a, err := NewMmapArray(m, 8, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []float32{4, 5, 6}, a.Row(1))
	assert.Equal(t, values, CopyMatrix(a))
	require.NoError(t, a.Close())

	t.Run("OutOfBounds", func(t *testing.T) {
		m, err := mmap.Open(path)
		require.NoError(t, err)
		defer m.Close()

		_, err = NewMmapArray(m, 8, 3, 3)
		assert.ErrorIs(t, err, mmap.ErrOutOfBounds)
	})
}
