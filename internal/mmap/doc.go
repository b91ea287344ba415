// Package mmap provides read-only memory-mapped file access.
//
// Embedding matrices are mapped rather than read so that a store can be opened
// without paging the whole matrix into memory. Rows are faulted in lazily the
// first time a query touches them.
//
// # Usage
//
//	m, err := mmap.Open("embeddings.fifu")
//	if err != nil { ... }
//	defer m.Close()
//
//	region, _ := m.Region(offset, rows*dims*4)
//	matrix, _ := region.Float32s()
//
//	// Similarity queries scan every row.
//	region.Advise(mmap.AccessSequential)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (advice is a no-op)
//
// # Thread Safety
//
// Mapping and Region are safe for concurrent read access. Close is idempotent.
// Callers must not touch slices obtained from Bytes or Float32s after Close.
package mmap
