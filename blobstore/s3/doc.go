// Package s3 stores sketch shards in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("sketches/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	w, err := sketchfile.CreateBlob(ctx, store, minsketch.ShardName(3))
//
// # Features
//
//   - Streaming multipart uploads for shard files
//   - Range reads for header peeks
//   - CRC32C-checked small puts for the catalog
//   - DDBCommitStore for an atomically versioned CURRENT pointer
package s3
