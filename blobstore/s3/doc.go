// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("embeddings/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	emb, err := embedstore.OpenBlob(ctx, store, "wiki.fifu")
//
// # Features
//
//   - Range reads for chunk access
//   - Multipart uploads for large embedding files
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
