package quantization

import (
	"math"
	"math/rand"

	"github.com/hupe1980/embedstore/internal/math32"
)

// randomOrthogonal samples a d×d orthogonal matrix by Gram-Schmidt
// orthonormalization of a Gaussian matrix.
func randomOrthogonal(d int, rng *rand.Rand) []float32 {
	m := make([]float32, d*d)
	for i := range m {
		m[i] = float32(rng.NormFloat64())
	}
	orthonormalize(m, d)
	return m
}

// orthonormalize applies modified Gram-Schmidt to the rows of a d×d matrix.
// A row that collapses to zero is replaced by a unit basis vector.
func orthonormalize(m []float32, d int) {
	for i := 0; i < d; i++ {
		ri := m[i*d : (i+1)*d]
		for j := 0; j < i; j++ {
			rj := m[j*d : (j+1)*d]
			dot := math32.Dot(ri, rj)
			for k := range ri {
				ri[k] -= dot * rj[k]
			}
		}

		norm := math32.Norm(ri)
		if norm < 1e-6 || math.IsNaN(float64(norm)) {
			clear(ri)
			ri[i] = 1
			continue
		}
		math32.ScaleInPlace(ri, 1/norm)
	}
}

// project computes dst = x·P for a row-major d×d matrix P.
func project(p, x, dst []float32) {
	d := len(x)
	clear(dst)
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		row := p[i*d : (i+1)*d]
		for j, v := range row {
			dst[j] += xi * v
		}
	}
}

// projectTransposed computes dst = r·Pᵀ, i.e. dst[i] = P[i]·r.
func projectTransposed(p, r, dst []float32) {
	d := len(r)
	for i := range dst {
		dst[i] = math32.Dot(p[i*d:(i+1)*d], r)
	}
}
