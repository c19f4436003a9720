package sketchfile

// Copy streams every record src yields into dst without decoding signatures.
// Filtering is configured on src with WithFilter. Copy returns the number of
// records written.
func Copy(dst *Writer, src *Reader) (int, error) {
	n := 0
	for rec, err := range src.Raw() {
		if err != nil {
			return n, err
		}
		if err := dst.WriteRaw(rec.Bytes); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
