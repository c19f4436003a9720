// Package sketchfile reads and writes sketch files: flat sequences of
// fixed-size codec records, optionally preceded by a 32-byte header and
// optionally wrapped in an LZ4 or Zstandard frame.
//
// # Layout
//
//	[header 32B]? record record record ...
//
// The header carries magic "MHSKETCH", a format version, the seed policy and
// hash family of the builder, numPerm and the seed, protected by CRC32C.
// Files without a header (the legacy layout) are still read: the record
// size is inferred from the numPerm of the first record, and every later
// record is assumed to share it. A legacy file that violates this is
// misparsed without an error; header files are checked record by record.
//
// # Reading
//
//	for rec, err := range sketchfile.ReadFile("hashes.0.dat") {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(rec.ID, rec.Signature.NumPerm())
//	}
//
// A Reader reads BatchSize records per cycle into one reusable buffer and
// yields complete records only. A partial record at the end of the file is
// dropped under TrailingSkip (the default) and reported as ErrTruncated
// under TrailingStrict.
//
// # Writing
//
//	w, err := sketchfile.Create("hashes.0.dat", sketchfile.WithBuilder(b))
//	defer w.Close()
//	err = w.Write("doc-1", sig)
//
// Writers are append-only and single-producer.
package sketchfile
