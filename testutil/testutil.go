package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/embedstore/internal/math32"
)

// RNG wraps a seeded random generator. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates an RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible test data
		seed: seed,
	}
}

// Reset rewinds the RNG to its seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns a pseudo-random number in [0,1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with values in [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// Matrix returns a row-major rows×dims matrix with values in [-1, 1).
func (r *RNG) Matrix(rows, dims int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	data := make([]float32, rows*dims)
	for i := range data {
		data[i] = r.rand.Float32()*2 - 1
	}
	return data
}

// GaussianVectors generates vectors drawn from a standard normal distribution.
func (r *RNG) GaussianVectors(num, dims int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dims)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dims : (i+1)*dims]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		vectors[i] = vec
	}
	return vectors
}

// UnitVectors generates L2-normalized vectors distributed uniformly on the
// unit sphere.
func (r *RNG) UnitVectors(num, dims int) [][]float32 {
	vectors := r.GaussianVectors(num, dims)
	for _, vec := range vectors {
		norm := math32.Norm(vec)
		if norm == 0 {
			continue
		}
		math32.ScaleInPlace(vec, 1/norm)
	}
	return vectors
}

// ClusteredVectors generates vectors around random unit centroids. Vector i
// belongs to cluster i % clusters.
func (r *RNG) ClusteredVectors(num, dims, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dims)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dims)
	vectors := make([][]float32, num)
	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dims : (i+1)*dims]
		for j := range dims {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}
	return vectors
}

// Words returns n distinct words. Each word carries its index so collisions
// are impossible, and a random lowercase stem so n-grams vary.
func (r *RNG) Words(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	words := make([]string, n)
	for i := range words {
		stem := make([]byte, 3+r.rand.Intn(6))
		for j := range stem {
			stem[j] = byte('a' + r.rand.Intn(26))
		}
		words[i] = fmt.Sprintf("%s%d", stem, i)
	}
	return words
}

// Result is a row and its cosine similarity to a query.
type Result struct {
	Row        int
	Similarity float32
}

// Cosine computes the cosine similarity in float64. Zero vectors have
// similarity 0.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BruteForceCosine ranks every row not in skip by cosine similarity to query
// and returns the top k, ties broken by ascending row.
func BruteForceCosine(rows [][]float32, query []float32, k int, skip map[int]bool) []Result {
	results := make([]Result, 0, len(rows))
	for i, row := range rows {
		if skip[i] {
			continue
		}
		results = append(results, Result{Row: i, Similarity: float32(Cosine(query, row))})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Row < results[j].Row
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// Recall returns the fraction of rows in want that also appear in got.
func Recall(want, got []Result) float64 {
	if len(want) == 0 {
		if len(got) == 0 {
			return 1
		}
		return 0
	}

	truth := make(map[int]struct{}, len(want))
	for _, r := range want {
		truth[r.Row] = struct{}{}
	}
	hits := 0
	for _, r := range got {
		if _, ok := truth[r.Row]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}
