// Package minsketch turns streams of (document, token set) entries into
// MinHash sketch files.
//
// The pipeline folds an ordered entry stream into one complete token set per
// document (package group), hashes each set into a fixed-length signature
// (package minhash), encodes it as a fixed-size binary record (package codec)
// and appends it to a sketch file (package sketchfile).
//
// # Quick Start
//
// Sketch one stream into a local file:
//
//	s, _ := minsketch.New(minsketch.WithNumPerm(128), minsketch.WithSeed(1))
//	w, _ := sketchfile.Create("hashes.0.dat", sketchfile.WithBuilder(s.Builder()))
//	stats, err := s.Run(ctx, chunks, resolver, w)
//	_ = w.Close()
//
// Sketch many streams into a blob store, bounded to four at a time:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("sketches/"))
//	results, err := s.RunAll(ctx, store, jobs, 4)
//
// Read a sketch file back:
//
//	for rec, err := range sketchfile.ReadFile("hashes.0.dat") {
//	    fmt.Println(rec.ID, rec.Signature.NumPerm())
//	}
//
// # Document Identity
//
// Entries carry integer document keys. A Resolver maps each key to the
// external id stored in the file; the lookup package provides in-memory, TSV
// and SQLite resolvers. Unresolvable keys fail the run unless
// WithSkipUnresolved is set.
//
// # Comparability
//
// Signatures are comparable only when numPerm, seed and hash family match.
// A Sketcher resolves its seed once, so every file it writes shares one
// permutation family. The catalog package records these parameters per
// shard.
//
// # Observability
//
// Logging uses log/slog through Logger; metrics flow through a
// MetricsCollector (BasicMetricsCollector in memory, metrics/prometheus for
// Prometheus).
package minsketch
