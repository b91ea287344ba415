// Package storage holds embedding matrices.
//
// Three backends are provided:
//
//   - NdArray: an owned, row-major float32 matrix
//   - MmapArray: a float32 matrix viewed directly in a memory-mapped file
//   - QuantizedArray: product-quantized rows reconstructed on access
//
// NdArray and MmapArray implement View and allow zero-copy row access.
// QuantizedArray only implements Storage, every access reconstructs a copy.
//
// Row accessors panic when the index is out of range. Callers that take row
// indices from users bounds-check first.
package storage
