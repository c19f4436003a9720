// Package blobstore abstracts where sketch shards and the shard catalog live.
//
// Implementations must be safe for concurrent use by independent shard jobs.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system
//   - MemoryStore: in-process map, for tests and dry runs
//   - s3.Store and s3.DDBCommitStore: Amazon S3, optionally with DynamoDB
//     guarding the catalog CURRENT pointer
//   - minio.Store: MinIO and other S3-compatible services
//
// Sketch files are read front to back, so the sequential [NewReader] over a
// Blob is what package sketchfile uses; ReadAt serves header peeks and tools
// that only need a single record.
package blobstore
