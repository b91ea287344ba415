package storage

import (
	"math"

	"github.com/hupe1980/embedstore/internal/math32"
)

// normalizedSamples is the number of rows RowsNormalized inspects.
const normalizedSamples = 64

// Norms caches the L2 norm of every word row. A nil *Norms is an absent cache.
type Norms struct {
	values []float32
}

// NewNorms wraps precomputed norms. Norms takes ownership of values.
func NewNorms(values []float32) *Norms {
	return &Norms{values: values}
}

// ComputeNorms computes the L2 norms of the first n rows of s.
func ComputeNorms(s Storage, n int) *Norms {
	values := make([]float32, n)

	if v, ok := s.(View); ok {
		for i := range values {
			values[i] = math32.Norm(v.Row(i))
		}
		return NewNorms(values)
	}

	_, dims := s.Shape()
	buf := make([]float32, dims)
	for i := range values {
		s.EmbeddingInto(i, buf)
		values[i] = math32.Norm(buf)
	}
	return NewNorms(values)
}

// RowsNormalized reports whether the first n rows of s have unit length,
// judged from evenly spaced samples. Zero rows count as normalized.
// Containers that store normalized rows keep the pre-normalization norms in
// their norm chunk.
func RowsNormalized(s Storage, n int) bool {
	if n <= 0 {
		return false
	}
	_, dims := s.Shape()
	buf := make([]float32, dims)
	step := max(n/normalizedSamples, 1)
	for i := 0; i < n; i += step {
		s.EmbeddingInto(i, buf)
		norm := math32.Norm(buf)
		if norm != 0 && math.Abs(float64(norm)-1) > 1e-3 {
			return false
		}
	}
	return true
}

// Norm returns the norm of row i, or 1 if the cache is absent or does not
// cover i.
func (n *Norms) Norm(i int) float32 {
	if n == nil || i < 0 || i >= len(n.values) {
		return 1
	}
	return n.values[i]
}

// Lookup returns the norm of row i and whether the cache covers it.
func (n *Norms) Lookup(i int) (float32, bool) {
	if n == nil || i < 0 || i >= len(n.values) {
		return 0, false
	}
	return n.values[i], true
}

// Len returns the number of cached norms.
func (n *Norms) Len() int {
	if n == nil {
		return 0
	}
	return len(n.values)
}

// Values returns the cached norms. The slice must not be modified.
func (n *Norms) Values() []float32 {
	if n == nil {
		return nil
	}
	return n.values
}
