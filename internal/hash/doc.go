// Package hash provides the CRC32-Castagnoli checksum used by sketch file
// headers and the shard catalog.
//
// One-shot:
//
//	sum := hash.CRC32C(buf)
//
// Streaming:
//
//	h := hash.NewCRC32C()
//	h.Write(part1)
//	h.Write(part2)
//	sum := h.Sum32()
package hash
