package quantization

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/embedstore/internal/math32"
)

func randomMatrix(rng *rand.Rand, n, dim int) []float32 {
	m := make([]float32, n*dim)
	for i := range m {
		m[i] = rng.Float32()
	}
	return m
}

func TestProductQuantizer(t *testing.T) {
	const (
		dimension     = 32
		numVectors    = 1000
		numSubvectors = 8
		numCentroids  = 16
	)

	pq, err := NewProductQuantizer(dimension, numSubvectors, numCentroids)
	require.NoError(t, err)
	assert.False(t, pq.IsTrained())

	_, err = pq.Encode(make([]float32, dimension))
	assert.ErrorIs(t, err, ErrNotTrained)

	rng := rand.New(rand.NewSource(7))
	vectors := randomMatrix(rng, numVectors, dimension)
	require.NoError(t, pq.Train(vectors, WithSeed(3)))
	assert.True(t, pq.IsTrained())
	assert.Len(t, pq.Centroids(), numSubvectors*numCentroids*(dimension/numSubvectors))

	var mse float32
	for i := 0; i < numVectors; i++ {
		row := vectors[i*dimension : (i+1)*dimension]
		codes, err := pq.Encode(row)
		require.NoError(t, err)
		require.Len(t, codes, numSubvectors)
		mse += math32.SquaredL2(row, pq.Decode(codes))
	}
	mse /= float32(numVectors * dimension)

	// Uniform [0,1) data has a per-dimension variance of 1/12.
	assert.Less(t, mse, float32(1.0/12))
	assert.InDelta(t, float64(dimension*4)/numSubvectors, pq.CompressionRatio(), 1e-9)
}

func TestProductQuantizer_ExactWhenCentroidsSuffice(t *testing.T) {
	vectors := []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		-1, 0, 1, 0,
	}
	pq, err := NewProductQuantizer(4, 2, 4)
	require.NoError(t, err)
	require.NoError(t, pq.Train(vectors))

	for i := 0; i < 3; i++ {
		row := vectors[i*4 : (i+1)*4]
		codes, err := pq.Encode(row)
		require.NoError(t, err)
		assert.Equal(t, row, pq.Decode(codes))
	}
}

func TestProductQuantizer_Projection(t *testing.T) {
	vectors := []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}
	pq, err := NewProductQuantizer(4, 2, 2)
	require.NoError(t, err)
	require.NoError(t, pq.Train(vectors, WithProjection(true), WithSeed(11)))
	require.NotNil(t, pq.Projection())

	// Rows of the projection are orthonormal.
	p := pq.Projection()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, math32.Dot(p[i*4:(i+1)*4], p[j*4:(j+1)*4]), 1e-4)
		}
	}

	for i := 0; i < 2; i++ {
		row := vectors[i*4 : (i+1)*4]
		codes, err := pq.Encode(row)
		require.NoError(t, err)
		got := pq.Decode(codes)
		for d := range row {
			assert.InDelta(t, row[d], got[d], 1e-4)
		}
	}
}

func TestProductQuantizer_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vectors := randomMatrix(rng, 200, 8)

	train := func() []float32 {
		pq, err := NewProductQuantizer(8, 2, 8)
		require.NoError(t, err)
		require.NoError(t, pq.Train(vectors, WithSeed(5)))
		return pq.Centroids()
	}

	assert.Equal(t, train(), train())
}

func TestProductQuantizer_FromCentroids(t *testing.T) {
	centroids := []float32{
		// subspace 0
		0, 0,
		1, 1,
		// subspace 1
		2, 2,
		3, 3,
	}
	pq, err := NewProductQuantizerFromCentroids(4, 2, 2, centroids, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 2, 2}, pq.Decode([]byte{1, 0}))

	dst := make([]float32, 4)
	pq.Reconstruct([]byte{0, 1}, dst)
	assert.Equal(t, []float32{0, 0, 3, 3}, dst)

	_, err = NewProductQuantizerFromCentroids(4, 2, 2, centroids[:6], nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewProductQuantizerFromCentroids(4, 2, 2, centroids, make([]float32, 3))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestProductQuantizer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name                 string
		dim, subvectors, cen int
	}{
		{"NotDivisible", 10, 3, 16},
		{"TooManyCentroids", 8, 2, 257},
		{"ZeroCentroids", 8, 2, 0},
		{"ZeroSubvectors", 8, 0, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProductQuantizer(tt.dim, tt.subvectors, tt.cen)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	pq, err := NewProductQuantizer(4, 2, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, pq.Train([]float32{1, 2, 3}), ErrDimensionMismatch)
}

func BenchmarkProductQuantizerEncode(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	vectors := randomMatrix(rng, 2000, 128)
	pq, err := NewProductQuantizer(128, 16, 256)
	require.NoError(b, err)
	require.NoError(b, pq.Train(vectors, WithIterations(5)))

	codes := make([]byte, 16)
	row := vectors[:128]
	for b.Loop() {
		_ = pq.EncodeInto(row, codes)
	}
}
