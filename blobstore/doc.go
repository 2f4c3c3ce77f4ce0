// Package blobstore provides the storage abstraction segments live on.
//
// A BlobStore holds immutable, named blobs: segment artifacts, packed V3
// containers, index maps and manifests. Implementations must be safe for
// concurrent use and must make Put atomic, so readers observe either the
// old blob or the complete new one.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, temp-file + rename writes, mmap reads
//   - MemoryStore: in-memory, for tests
//   - minio.Store: MinIO and S3-compatible services
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: S3 plus DynamoDB conditional commits of CURRENT
//
// Delete is idempotent: removing a missing blob is not an error.
package blobstore
