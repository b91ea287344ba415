// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client library, so it also works with other
// S3-compatible systems like Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "embeddings/")
//	emb, err := embedstore.OpenBlob(ctx, store, "wiki.fifu")
//
// # Features
//
//   - Streaming uploads for large embedding files
//   - Range reads for chunk access
//   - Air-gap friendly (no AWS dependencies required)
package minio
