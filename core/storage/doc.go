// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the small read-only interface the bucket
// source tree needs. This abstraction supports both AWS S3 and self-hosted
// MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the source bucket.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//   - StatObject: Reads object metadata; a missing key maps to ErrNoSuchKey.
//   - GetObject: Retrieves content as a stream.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "documents")
package storage
