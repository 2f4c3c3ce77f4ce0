// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("events/seg_0001/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	rec, err := segmend.Open(ctx, store)
//
// S3 has no atomic rename, so the manifest CURRENT pointer is only safe for a
// single writer. DDBCommitStore moves CURRENT into DynamoDB and commits it
// with a conditional write.
package s3
