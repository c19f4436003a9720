// Package catalog records which sketch files a batch run produced.
//
// # Overview
//
// A catalog is a snapshot of the shards written by one run: their names,
// signature parameters and sizes. Readers use it to discover shards without
// listing the store and to check that all shards share numPerm, seed and
// hash family before comparing signatures across them.
//
// # Binary Format
//
// Catalogs are stored in a compact binary format with integrity checking:
//
//	Header (16 bytes):
//	  Magic    (4 bytes) - 0x4D534B43 ("MSKC")
//	  Version  (4 bytes) - Format version (currently 1)
//	  Checksum (4 bytes) - CRC32-C of payload
//	  Length   (4 bytes) - Payload length in bytes
//
//	Payload:
//	  Generation (8 bytes) - Commit generation
//	  CreatedAt  (8 bytes) - Unix nanoseconds
//	  NumShards  (4 bytes)
//	  Shards[]:
//	    Name       (string)
//	    NumPerm    (4 bytes)
//	    Seed       (8 bytes)
//	    SeedPolicy (1 byte)
//	    Family     (1 byte)
//	    Records    (8 bytes)
//	    Bytes      (8 bytes)
//
// Strings are length-prefixed (2-byte length + bytes). All integers are
// little-endian.
//
// # Atomic Protocol
//
// Commit follows a two-phase protocol:
//
//  1. Write the catalog blob to CATALOG-NNNNNN.bin (N is the generation)
//  2. Point CURRENT at the new blob
//
// On local filesystems, step 2 is an atomic rename. With s3.DDBCommitStore,
// CURRENT is a conditional DynamoDB insert, so concurrent committers cannot
// silently overwrite each other.
//
// # Thread Safety
//
// All Store methods are protected by a mutex and safe for concurrent use.
package catalog
