package storage

import (
	"fmt"
	"io"

	"github.com/hupe1980/embedstore/internal/math32"
	"github.com/hupe1980/embedstore/quantization"
)

// QuantizedArray stores rows as product quantization codes. Rows are
// reconstructed from the centroid table on every access and, when per-row
// norms are stored, rescaled by them.
type QuantizedArray struct {
	pq     *quantization.ProductQuantizer
	codes  []byte
	norms  []float32
	rows   int
	closer io.Closer
}

var _ Storage = (*QuantizedArray)(nil)

// NewQuantizedArray creates quantized storage from a trained quantizer, the
// row-major codes (rows × code length) and optional per-row norms (nil for none).
// Every code must address one of the quantizer's centroids.
func NewQuantizedArray(pq *quantization.ProductQuantizer, codes []byte, norms []float32) (*QuantizedArray, error) {
	m := pq.NumSubvectors()
	if len(codes)%m != 0 {
		return nil, fmt.Errorf("%w: %d code bytes for code length %d", ErrShape, len(codes), m)
	}
	rows := len(codes) / m
	if norms != nil && len(norms) != rows {
		return nil, fmt.Errorf("%w: %d norms for %d rows", ErrShape, len(norms), rows)
	}
	if err := pq.ValidateCodes(codes); err != nil {
		return nil, err
	}
	return &QuantizedArray{pq: pq, codes: codes, norms: norms, rows: rows}, nil
}

// WithCloser attaches a resource, such as the mapping holding the codes, that
// is released by Close.
func (q *QuantizedArray) WithCloser(c io.Closer) *QuantizedArray {
	q.closer = c
	return q
}

// Shape implements Storage.
func (q *QuantizedArray) Shape() (int, int) { return q.rows, q.pq.Dimension() }

// Embedding implements Storage.
func (q *QuantizedArray) Embedding(i int) []float32 {
	out := make([]float32, q.pq.Dimension())
	q.EmbeddingInto(i, out)
	return out
}

// EmbeddingInto implements Storage.
func (q *QuantizedArray) EmbeddingInto(i int, dst []float32) {
	if i < 0 || i >= q.rows {
		panic(fmt.Sprintf("storage: row %d out of range [0, %d)", i, q.rows))
	}
	m := q.pq.NumSubvectors()
	dst = dst[:q.pq.Dimension()]
	q.pq.Reconstruct(q.codes[i*m:(i+1)*m], dst)
	if q.norms != nil {
		math32.ScaleInPlace(dst, q.norms[i])
	}
}

// Quantizer returns the product quantizer.
func (q *QuantizedArray) Quantizer() *quantization.ProductQuantizer { return q.pq }

// Codes returns the row-major codes.
func (q *QuantizedArray) Codes() []byte { return q.codes }

// Norms returns the stored per-row norms, or nil.
func (q *QuantizedArray) Norms() []float32 { return q.norms }

// Close releases the attached resource, if any.
func (q *QuantizedArray) Close() error {
	if q.closer == nil {
		return nil
	}
	return q.closer.Close()
}
