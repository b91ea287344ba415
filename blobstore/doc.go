// Package blobstore provides the storage abstraction embedding files are read
// from and written to.
//
// BlobStore is the interface for reading and writing blobs. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local file system, blobs are memory mapped on Open
//   - MemoryStore: in-memory store for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// Blobs that implement Mappable can back memory-mapped embedding storage
// directly; all other blobs are read into memory.
package blobstore
