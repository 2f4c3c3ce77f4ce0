// Package minio provides a BlobStore backed by MinIO or any other
// S3-compatible service reachable through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "segments", "events/seg_0001/")
//	rec, err := segmend.Open(ctx, store)
//
// Each segment is addressed by its root prefix, so one bucket can hold many
// segments.
package minio
