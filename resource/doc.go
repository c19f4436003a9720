// Package resource bounds the shared resources of a sketching run: shard
// worker slots, reader batch memory and output throughput.
//
// A nil *Controller imposes no limits, so callers may pass it through
// unconditionally.
package resource
