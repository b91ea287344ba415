package quantization

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hupe1980/embedstore/internal/math32"
)

var (
	// ErrInvalidConfig is returned for unusable quantizer parameters.
	ErrInvalidConfig = errors.New("quantization: invalid configuration")
	// ErrNotTrained is returned when encoding with an untrained quantizer.
	ErrNotTrained = errors.New("quantization: quantizer not trained")
	// ErrDimensionMismatch is returned for vectors of the wrong dimension.
	ErrDimensionMismatch = errors.New("quantization: dimension mismatch")
	// ErrInvalidCode is returned for codes that address no centroid.
	ErrInvalidCode = errors.New("quantization: invalid code")
)

// ProductQuantizer implements product quantization with uint8 codes.
//
// Centroids are stored flat with layout [M][K][D/M]. The projection, if any,
// is a row-major D×D matrix P: vectors are encoded as x·P and reconstructed
// as r·Pᵀ.
type ProductQuantizer struct {
	numSubvectors int
	numCentroids  int
	dimension     int
	subvectorDim  int
	centroids     []float32
	projection    []float32
	trained       bool
}

// NewProductQuantizer creates an untrained quantizer.
//   - dimension: vector dimension, divisible by numSubvectors
//   - numSubvectors: M, the code length in bytes
//   - numCentroids: K, at most 256
func NewProductQuantizer(dimension, numSubvectors, numCentroids int) (*ProductQuantizer, error) {
	if dimension <= 0 || numSubvectors <= 0 || dimension%numSubvectors != 0 {
		return nil, fmt.Errorf("%w: dimension %d is not divisible into %d subvectors", ErrInvalidConfig, dimension, numSubvectors)
	}
	if numCentroids <= 0 || numCentroids > 256 {
		return nil, fmt.Errorf("%w: %d centroids, need 1..256 for uint8 codes", ErrInvalidConfig, numCentroids)
	}

	return &ProductQuantizer{
		numSubvectors: numSubvectors,
		numCentroids:  numCentroids,
		dimension:     dimension,
		subvectorDim:  dimension / numSubvectors,
	}, nil
}

// NewProductQuantizerFromCentroids creates a trained quantizer from stored
// centroids (layout [M][K][D/M]) and an optional projection (nil for none).
func NewProductQuantizerFromCentroids(dimension, numSubvectors, numCentroids int, centroids, projection []float32) (*ProductQuantizer, error) {
	pq, err := NewProductQuantizer(dimension, numSubvectors, numCentroids)
	if err != nil {
		return nil, err
	}
	if len(centroids) != numSubvectors*numCentroids*pq.subvectorDim {
		return nil, fmt.Errorf("%w: %d centroid values, want %d", ErrInvalidConfig, len(centroids), numSubvectors*numCentroids*pq.subvectorDim)
	}
	if projection != nil && len(projection) != dimension*dimension {
		return nil, fmt.Errorf("%w: projection has %d values, want %d", ErrInvalidConfig, len(projection), dimension*dimension)
	}

	pq.centroids = centroids
	pq.projection = projection
	pq.trained = true

	return pq, nil
}

// TrainOption configures training.
type TrainOption func(*trainOptions)

type trainOptions struct {
	seed       int64
	iterations int
	project    bool
}

// WithSeed seeds centroid initialization and projection sampling.
func WithSeed(seed int64) TrainOption {
	return func(o *trainOptions) { o.seed = seed }
}

// WithIterations sets the maximum number of k-means iterations.
func WithIterations(n int) TrainOption {
	return func(o *trainOptions) { o.iterations = n }
}

// WithProjection enables a random orthogonal projection before quantization.
func WithProjection(enabled bool) TrainOption {
	return func(o *trainOptions) { o.project = enabled }
}

// Train learns the codebooks from row-major training vectors.
func (pq *ProductQuantizer) Train(vectors []float32, optFns ...TrainOption) error {
	opts := trainOptions{seed: 1, iterations: 20}
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(vectors) == 0 || len(vectors)%pq.dimension != 0 {
		return fmt.Errorf("%w: %d training values for dimension %d", ErrDimensionMismatch, len(vectors), pq.dimension)
	}
	n := len(vectors) / pq.dimension
	rng := rand.New(rand.NewSource(opts.seed)) //nolint:gosec // training needs reproducibility, not security

	if opts.project {
		pq.projection = randomOrthogonal(pq.dimension, rng)
		projected := make([]float32, len(vectors))
		for i := 0; i < n; i++ {
			project(pq.projection, vectors[i*pq.dimension:(i+1)*pq.dimension], projected[i*pq.dimension:(i+1)*pq.dimension])
		}
		vectors = projected
	} else {
		pq.projection = nil
	}

	pq.centroids = make([]float32, pq.numSubvectors*pq.numCentroids*pq.subvectorDim)
	sub := make([]float32, n*pq.subvectorDim)
	for m := 0; m < pq.numSubvectors; m++ {
		for i := 0; i < n; i++ {
			start := i*pq.dimension + m*pq.subvectorDim
			copy(sub[i*pq.subvectorDim:(i+1)*pq.subvectorDim], vectors[start:start+pq.subvectorDim])
		}
		kmeans(sub, pq.subvectorDim, pq.numCentroids, opts.iterations, rng, pq.codebook(m))
	}

	pq.trained = true
	return nil
}

// Encode quantizes vec into M codes.
func (pq *ProductQuantizer) Encode(vec []float32) ([]byte, error) {
	codes := make([]byte, pq.numSubvectors)
	if err := pq.EncodeInto(vec, codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// EncodeInto quantizes vec into codes, which must hold M bytes.
func (pq *ProductQuantizer) EncodeInto(vec []float32, codes []byte) error {
	if !pq.trained {
		return ErrNotTrained
	}
	if len(vec) != pq.dimension || len(codes) != pq.numSubvectors {
		return fmt.Errorf("%w: vector %d/%d, codes %d/%d", ErrDimensionMismatch, len(vec), pq.dimension, len(codes), pq.numSubvectors)
	}

	if pq.projection != nil {
		projected := make([]float32, pq.dimension)
		project(pq.projection, vec, projected)
		vec = projected
	}

	for m := 0; m < pq.numSubvectors; m++ {
		subvec := vec[m*pq.subvectorDim : (m+1)*pq.subvectorDim]
		codes[m] = uint8(nearestCentroid(subvec, pq.codebook(m), pq.subvectorDim))
	}

	return nil
}

// Reconstruct writes the approximate vector for codes into dst, which must
// hold D values. It panics on malformed input.
func (pq *ProductQuantizer) Reconstruct(codes []byte, dst []float32) {
	if len(codes) != pq.numSubvectors || len(dst) != pq.dimension {
		panic("quantization: reconstruct shape mismatch")
	}

	target := dst
	if pq.projection != nil {
		target = make([]float32, pq.dimension)
	}

	for m, code := range codes {
		start := (m*pq.numCentroids + int(code)) * pq.subvectorDim
		copy(target[m*pq.subvectorDim:(m+1)*pq.subvectorDim], pq.centroids[start:start+pq.subvectorDim])
	}

	if pq.projection != nil {
		projectTransposed(pq.projection, target, dst)
	}
}

// ValidateCodes checks that every byte of codes, a sequence of code
// vectors, addresses one of the K centroids.
func (pq *ProductQuantizer) ValidateCodes(codes []byte) error {
	if pq.numCentroids >= 256 {
		return nil
	}
	for i, c := range codes {
		if int(c) >= pq.numCentroids {
			return fmt.Errorf("%w: code %d at offset %d, have %d centroids", ErrInvalidCode, c, i, pq.numCentroids)
		}
	}
	return nil
}

// Decode is Reconstruct into a new slice.
func (pq *ProductQuantizer) Decode(codes []byte) []float32 {
	out := make([]float32, pq.dimension)
	pq.Reconstruct(codes, out)
	return out
}

// Dimension returns D.
func (pq *ProductQuantizer) Dimension() int { return pq.dimension }

// NumSubvectors returns M.
func (pq *ProductQuantizer) NumSubvectors() int { return pq.numSubvectors }

// NumCentroids returns K.
func (pq *ProductQuantizer) NumCentroids() int { return pq.numCentroids }

// SubvectorDim returns D/M.
func (pq *ProductQuantizer) SubvectorDim() int { return pq.subvectorDim }

// IsTrained returns whether the quantizer has codebooks.
func (pq *ProductQuantizer) IsTrained() bool { return pq.trained }

// Centroids returns the flat centroid table with layout [M][K][D/M].
func (pq *ProductQuantizer) Centroids() []float32 { return pq.centroids }

// Projection returns the row-major projection matrix, or nil.
func (pq *ProductQuantizer) Projection() []float32 { return pq.projection }

// CompressionRatio returns the size ratio of float32 rows to codes.
func (pq *ProductQuantizer) CompressionRatio() float64 {
	return float64(pq.dimension*4) / float64(pq.numSubvectors)
}

func (pq *ProductQuantizer) codebook(m int) []float32 {
	size := pq.numCentroids * pq.subvectorDim
	return pq.centroids[m*size : (m+1)*size]
}

// kmeans clusters n row-major vectors of dimension dim into k centroids
// written to out, using k-means++ seeding and Lloyd iterations.
func kmeans(vectors []float32, dim, k, maxIters int, rng *rand.Rand, out []float32) {
	n := len(vectors) / dim
	row := func(i int) []float32 { return vectors[i*dim : (i+1)*dim] }
	centroid := func(c int) []float32 { return out[c*dim : (c+1)*dim] }

	if n <= k {
		// Every vector is its own centroid, surplus centroids repeat.
		for c := 0; c < k; c++ {
			copy(centroid(c), row(c%n))
		}
		return
	}

	copy(centroid(0), row(rng.Intn(n)))

	// minDistSq tracks each vector's squared distance to its nearest chosen centroid.
	minDistSq := make([]float32, n)
	var sum float32
	for i := 0; i < n; i++ {
		d := math32.SquaredL2(row(i), centroid(0))
		minDistSq[i] = d
		sum += d
	}

	for c := 1; c < k; c++ {
		if sum == 0 {
			copy(centroid(c), row(rng.Intn(n)))
			continue
		}

		target := rng.Float32() * sum
		var cumsum float32
		chosen := n - 1
		for i, d := range minDistSq {
			cumsum += d
			if cumsum >= target {
				chosen = i
				break
			}
		}
		copy(centroid(c), row(chosen))

		sum = 0
		for i := 0; i < n; i++ {
			d := math32.SquaredL2(row(i), centroid(c))
			if d < minDistSq[i] {
				minDistSq[i] = d
			}
			sum += minDistSq[i]
		}
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for range maxIters {
		changed := false
		for i := 0; i < n; i++ {
			nearest := nearestCentroid(row(i), out, dim)
			if assignments[i] != nearest {
				changed = true
				assignments[i] = nearest
			}
		}
		if !changed {
			break
		}

		clear(counts)
		clear(sums)
		for i := 0; i < n; i++ {
			c := assignments[i]
			counts[c]++
			math32.AddInPlace(sums[c*dim:(c+1)*dim], row(i))
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			dst := centroid(c)
			copy(dst, sums[c*dim:(c+1)*dim])
			math32.ScaleInPlace(dst, 1/float32(counts[c]))
		}
	}
}

// nearestCentroid returns the index of the centroid in the flat table closest
// to vec. Ties resolve to the lowest index.
func nearestCentroid(vec, centroids []float32, dim int) int {
	minDist := float32(math.MaxFloat32)
	nearest := 0

	for c := 0; c*dim < len(centroids); c++ {
		d := math32.SquaredL2(vec, centroids[c*dim:(c+1)*dim])
		if d < minDist {
			minDist = d
			nearest = c
		}
	}

	return nearest
}
