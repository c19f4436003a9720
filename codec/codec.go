// Package codec encodes sketch records.
//
// A record is the on-disk unit of a sketch file, one per document. Fields are
// packed without padding and stored little-endian:
//
//	offset  size        field
//	0       8           seed      int64
//	8       4           numPerm   int32
//	12      30          id        UTF-8, right-padded with NUL
//	42      4*numPerm   hashes    uint32 each
//
// The layout is a compatibility boundary: identifiers that do not fit the
// 30-byte field are rejected, never truncated.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/hupe1980/minsketch/internal/conv"
	"github.com/hupe1980/minsketch/minhash"
)

const (
	// IDSize is the width of the identifier field.
	IDSize = 30
	// PrefixSize covers seed and numPerm, enough to size the record.
	PrefixSize = 12
	// FixedSize is the record size without hash values.
	FixedSize = PrefixSize + IDSize

	hashSize = 4
)

// RecordSize returns the encoded size of a record with numPerm hash values.
func RecordSize(numPerm int) int {
	return FixedSize + hashSize*numPerm
}

// Encode returns the record bytes for id and sig.
func Encode(id string, sig minhash.Signature) ([]byte, error) {
	return AppendRecord(make([]byte, 0, RecordSize(sig.NumPerm())), id, sig)
}

// AppendRecord appends the encoded record to dst.
// On error dst is returned unchanged.
func AppendRecord(dst []byte, id string, sig minhash.Signature) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return dst, err
	}
	numPerm, err := conv.Int32(sig.NumPerm())
	if err != nil || numPerm < 1 || numPerm > minhash.MaxNumPerm {
		return dst, fmt.Errorf("%w: %d", ErrInvalidNumPerm, sig.NumPerm())
	}

	dst = binary.LittleEndian.AppendUint64(dst, uint64(sig.Seed))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(numPerm))
	dst = append(dst, id...)
	for range IDSize - len(id) {
		dst = append(dst, 0)
	}
	for _, v := range sig.HashValues {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst, nil
}

// ValidateID checks that id can be stored in the identifier field.
func ValidateID(id string) error {
	if len(id) > IDSize {
		return &IDTooLongError{ID: id}
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidID)
	}
	if bytes.IndexByte([]byte(id), 0) >= 0 {
		return fmt.Errorf("%w: contains NUL", ErrInvalidID)
	}
	return nil
}

// Decode parses one record with numPerm hash values from the start of buf.
//
// buf may be a view into a larger buffer; the returned signature owns its
// hash values.
func Decode(buf []byte, numPerm int) (string, minhash.Signature, error) {
	if numPerm < 1 || numPerm > minhash.MaxNumPerm {
		return "", minhash.Signature{}, fmt.Errorf("%w: %d", ErrInvalidNumPerm, numPerm)
	}
	size := RecordSize(numPerm)
	if len(buf) < size {
		return "", minhash.Signature{}, &ShortBufferError{Need: size, Have: len(buf)}
	}

	id, err := DecodeID(buf)
	if err != nil {
		return "", minhash.Signature{}, err
	}

	values := make([]uint32, numPerm)
	hashes := buf[FixedSize:size]
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(hashes[i*hashSize:])
	}

	return id, minhash.Signature{
		Seed:       int64(binary.LittleEndian.Uint64(buf[0:8])),
		HashValues: values,
	}, nil
}

// DecodeID extracts only the identifier of the record at the start of buf.
func DecodeID(buf []byte) (string, error) {
	if len(buf) < FixedSize {
		return "", &ShortBufferError{Need: FixedSize, Have: len(buf)}
	}
	field := bytes.TrimRight(buf[PrefixSize:FixedSize], "\x00")
	if !utf8.Valid(field) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidID)
	}
	return string(field), nil
}

// PeekPrefix reads seed and numPerm from the start of buf.
func PeekPrefix(buf []byte) (seed int64, numPerm int32, err error) {
	if len(buf) < PrefixSize {
		return 0, 0, &ShortBufferError{Need: PrefixSize, Have: len(buf)}
	}
	seed = int64(binary.LittleEndian.Uint64(buf[0:8]))
	numPerm = int32(binary.LittleEndian.Uint32(buf[8:12]))
	return seed, numPerm, nil
}
