package mmap

import "unsafe"

// Region represents a subsection of a memory mapping.
// It does not own the memory; the parent Mapping does.
type Region struct {
	parent *Mapping
	offset int
	size   int
}

// Region creates a new view into the mapping.
func (m *Mapping) Region(offset, size int) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset+size > m.size {
		return nil, ErrOutOfBounds
	}
	return &Region{
		parent: m,
		offset: offset,
		size:   size,
	}, nil
}

// Bytes returns the byte slice for this region.
// The slice is valid only until the parent Mapping is closed.
func (r *Region) Bytes() []byte {
	if r.parent.closed.Load() {
		return nil
	}
	return r.parent.data[r.offset : r.offset+r.size]
}

// Float32s reinterprets the region as native-endian float32 values without
// copying. The region must start on a 4-byte boundary and its size must be a
// multiple of 4.
func (r *Region) Float32s() ([]float32, error) {
	data := r.Bytes()
	if data == nil {
		if r.parent.closed.Load() {
			return nil, ErrClosed
		}
		return nil, nil
	}
	if len(data) == 0 {
		return []float32{}, nil
	}
	if len(data)%4 != 0 || uintptr(unsafe.Pointer(&data[0]))%unsafe.Alignof(float32(0)) != 0 {
		return nil, ErrMisaligned
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/4), nil
}

// Advise provides hints to the kernel about how this region will be accessed.
func (r *Region) Advise(pattern AccessPattern) error {
	if r.parent.closed.Load() {
		return ErrClosed
	}
	data := r.parent.data[r.offset : r.offset+r.size]
	return osAdvise(data, pattern)
}
