package mmap

import "errors"

// AccessPattern is an access hint passed to the kernel. Embedding rows are
// either scanned front to back (similarity ranking, iteration) or fetched
// one at a time (lookups).
type AccessPattern int

const (
	// AccessDefault removes any earlier hint.
	AccessDefault AccessPattern = iota
	// AccessSequential favors read-ahead.
	AccessSequential
	// AccessRandom disables read-ahead.
	AccessRandom
)

var (
	// ErrClosed is returned for access to a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files that cannot be mapped at their size.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned for regions outside the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
	// ErrMisaligned is returned when a region cannot be viewed as float32 values.
	ErrMisaligned = errors.New("mmap: region is not float32 aligned")
)
