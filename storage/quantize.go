package storage

import (
	"fmt"
	"math/rand"

	"github.com/hupe1980/embedstore/internal/math32"
	"github.com/hupe1980/embedstore/quantization"
)

// QuantizeConfig configures Quantize.
type QuantizeConfig struct {
	// Subquantizers is the code length in bytes. Must divide the dimension.
	Subquantizers int
	// CentroidBits is log2 of the centroids per subquantizer, at most 8.
	CentroidBits int
	// Iterations bounds k-means iterations.
	Iterations int
	// TrainRows limits the number of rows sampled for training. Zero uses all rows.
	TrainRows int
	// Projection enables a random orthogonal projection.
	Projection bool
	// Normalize quantizes unit-length rows and stores their norms.
	Normalize bool
	// Seed makes training reproducible.
	Seed int64
}

// DefaultQuantizeConfig returns a configuration for the given dimension with
// one subquantizer per 4 dimensions and 256 centroids.
func DefaultQuantizeConfig(dims int) QuantizeConfig {
	sub := dims / 4
	if sub == 0 || dims%4 != 0 {
		sub = dims
	}
	return QuantizeConfig{
		Subquantizers: sub,
		CentroidBits:  8,
		Iterations:    20,
		Normalize:     true,
		Seed:          1,
	}
}

// Quantize trains a product quantizer on s and encodes every row.
func Quantize(s View, cfg QuantizeConfig) (*QuantizedArray, error) {
	rows, dims := s.Shape()
	if rows == 0 {
		return nil, fmt.Errorf("%w: cannot quantize an empty matrix", ErrShape)
	}
	if cfg.CentroidBits < 1 || cfg.CentroidBits > 8 {
		return nil, fmt.Errorf("%w: %d centroid bits", quantization.ErrInvalidConfig, cfg.CentroidBits)
	}

	pq, err := quantization.NewProductQuantizer(dims, cfg.Subquantizers, 1<<cfg.CentroidBits)
	if err != nil {
		return nil, err
	}

	var norms []float32
	source := s.Matrix()
	if cfg.Normalize {
		norms = make([]float32, rows)
		normalized := make([]float32, len(source))
		copy(normalized, source)
		for i := 0; i < rows; i++ {
			row := normalized[i*dims : (i+1)*dims]
			norms[i] = math32.Norm(row)
			if norms[i] > 0 {
				math32.ScaleInPlace(row, 1/norms[i])
			}
		}
		source = normalized
	}

	train := source
	if cfg.TrainRows > 0 && cfg.TrainRows < rows {
		rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible sampling
		train = make([]float32, 0, cfg.TrainRows*dims)
		for _, i := range rng.Perm(rows)[:cfg.TrainRows] {
			train = append(train, source[i*dims:(i+1)*dims]...)
		}
	}

	opts := []quantization.TrainOption{
		quantization.WithSeed(cfg.Seed),
		quantization.WithProjection(cfg.Projection),
	}
	if cfg.Iterations > 0 {
		opts = append(opts, quantization.WithIterations(cfg.Iterations))
	}
	if err := pq.Train(train, opts...); err != nil {
		return nil, err
	}

	m := pq.NumSubvectors()
	codes := make([]byte, rows*m)
	for i := 0; i < rows; i++ {
		if err := pq.EncodeInto(source[i*dims:(i+1)*dims], codes[i*m:(i+1)*m]); err != nil {
			return nil, err
		}
	}

	return NewQuantizedArray(pq, codes, norms)
}
