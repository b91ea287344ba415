// Package container implements the chunked embedding file format.
//
// A file starts with a header:
//
//	magic "FiFu" | version u32 | chunk count u32 | chunk ids u32...
//
// followed by chunks framed as
//
//	id u32 | payload length u64 | payload
//
// All integers and floats are little-endian. Float arrays are padded to a
// 4-byte file offset so that they can be memory-mapped and viewed in place.
//
// Files are written in the order vocabulary, storage, norms (optional),
// metadata (optional). Readers locate chunks by id and accept any order.
package container
