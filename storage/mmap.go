package storage

import (
	"fmt"
	"io"

	"github.com/hupe1980/embedstore/internal/mmap"
)

// MmapArray is a dense matrix backed by a memory-mapped file region.
type MmapArray struct {
	matrix
	closer io.Closer
}

var _ View = (*MmapArray)(nil)

// NewMmapArray views rows×dims little-endian float32 values at offset in m.
// The array takes ownership of the mapping and unmaps it on Close.
func NewMmapArray(m *mmap.Mapping, offset, rows, dims int) (*MmapArray, error) {
	region, err := m.Region(offset, rows*dims*4)
	if err != nil {
		return nil, fmt.Errorf("storage: map matrix: %w", err)
	}
	data, err := region.Float32s()
	if err != nil {
		return nil, fmt.Errorf("storage: map matrix: %w", err)
	}
	_ = region.Advise(mmap.AccessRandom)

	mat, err := newMatrix(data, rows, dims)
	if err != nil {
		return nil, err
	}
	return &MmapArray{matrix: mat, closer: m}, nil
}

// Close unmaps the file. Rows obtained earlier must no longer be used.
func (a *MmapArray) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func errShapeRow(got, want int) error {
	return fmt.Errorf("%w: row of %d values, want %d", ErrShape, got, want)
}
