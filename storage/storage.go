package storage

import (
	"errors"
	"fmt"
)

// ErrShape is returned when data does not match the declared matrix shape.
var ErrShape = errors.New("storage: shape mismatch")

// Storage is a rows×dims embedding matrix.
type Storage interface {
	// Shape returns the number of rows and the embedding dimensionality.
	Shape() (rows, dims int)
	// Embedding returns an owned copy of row i.
	Embedding(i int) []float32
	// EmbeddingInto writes row i into dst, which must hold dims values.
	EmbeddingInto(i int, dst []float32)
	// Close releases resources such as memory mappings.
	Close() error
}

// View is a Storage whose rows can be accessed without copying.
type View interface {
	Storage
	// Row returns row i. The slice aliases the storage and is valid until
	// Close. It must not be modified.
	Row(i int) []float32
	// Matrix returns the row-major matrix. The same rules as for Row apply.
	Matrix() []float32
}

// CopyMatrix materializes the full matrix as an owned row-major slice.
// Quantized storage is reconstructed row by row.
func CopyMatrix(s Storage) []float32 {
	rows, dims := s.Shape()
	out := make([]float32, rows*dims)

	if v, ok := s.(View); ok {
		copy(out, v.Matrix())
		return out
	}

	for i := 0; i < rows; i++ {
		s.EmbeddingInto(i, out[i*dims:(i+1)*dims])
	}
	return out
}

// matrix is the dense row-major layout shared by NdArray and MmapArray.
type matrix struct {
	data []float32
	rows int
	dims int
}

func newMatrix(data []float32, rows, dims int) (matrix, error) {
	if rows < 0 || dims < 0 || len(data) != rows*dims {
		return matrix{}, fmt.Errorf("%w: %d values for %d×%d", ErrShape, len(data), rows, dims)
	}
	return matrix{data: data, rows: rows, dims: dims}, nil
}

func (m *matrix) Shape() (int, int) { return m.rows, m.dims }

func (m *matrix) Row(i int) []float32 {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("storage: row %d out of range [0, %d)", i, m.rows))
	}
	return m.data[i*m.dims : (i+1)*m.dims : (i+1)*m.dims]
}

func (m *matrix) Matrix() []float32 { return m.data[:len(m.data):len(m.data)] }

func (m *matrix) Embedding(i int) []float32 {
	out := make([]float32, m.dims)
	copy(out, m.Row(i))
	return out
}

func (m *matrix) EmbeddingInto(i int, dst []float32) {
	copy(dst[:m.dims], m.Row(i))
}
