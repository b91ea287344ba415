// Package quantization implements product quantization (PQ) of embedding
// matrices.
//
// A vector of dimension D is split into M subvectors of D/M dimensions. Each
// subvector is replaced by the index of its nearest centroid in a per-subspace
// codebook of K <= 256 centroids, so a row is stored as M bytes:
//
//	pq, _ := quantization.NewProductQuantizer(300, 30, 256)
//	_ = pq.Train(rows, quantization.WithSeed(42))
//	codes := pq.Encode(row)         // 300 floats -> 30 bytes
//	pq.Reconstruct(codes, approx)   // approximate row
//
// An optional orthogonal projection is applied before encoding and undone on
// reconstruction. Rotating the space spreads variance across subspaces.
package quantization
