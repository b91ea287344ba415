package storage

// NdArray is an owned dense matrix.
type NdArray struct {
	matrix
}

var _ View = (*NdArray)(nil)

// NewNdArray wraps row-major data. The array takes ownership of data.
func NewNdArray(data []float32, rows, dims int) (*NdArray, error) {
	m, err := newMatrix(data, rows, dims)
	if err != nil {
		return nil, err
	}
	return &NdArray{matrix: m}, nil
}

// NewNdArrayFromRows copies equally sized rows into a new array.
func NewNdArrayFromRows(rows [][]float32) (*NdArray, error) {
	if len(rows) == 0 {
		return NewNdArray(nil, 0, 0)
	}
	dims := len(rows[0])
	data := make([]float32, 0, len(rows)*dims)
	for _, r := range rows {
		if len(r) != dims {
			return nil, errShapeRow(len(r), dims)
		}
		data = append(data, r...)
	}
	return NewNdArray(data, len(rows), dims)
}

// Close is a no-op.
func (a *NdArray) Close() error { return nil }
