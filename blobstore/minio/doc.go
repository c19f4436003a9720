// Package minio stores sketch shards in MinIO or any S3-compatible service
// (Ceph, Garage, SeaweedFS) through the MinIO client.
//
// # Basic Usage
//
//	store, err := minio.Dial(ctx, minio.Endpoint{
//	    Address:   "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "sketches", "run-42/")
//
// Or with an existing client:
//
//	store := minioblob.NewStore(client, "sketches", "run-42/")
package minio
