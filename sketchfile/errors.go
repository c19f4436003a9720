package sketchfile

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHeader is returned for a bad magic, version or checksum.
	ErrInvalidHeader = errors.New("invalid sketch file header")
	// ErrTruncated is returned under TrailingStrict when the file ends
	// inside a record.
	ErrTruncated = errors.New("sketch file truncated")
	// ErrNumPermMismatch is returned when a record does not match the
	// file's numPerm.
	ErrNumPermMismatch = errors.New("numPerm mismatch")
	// ErrClosed is returned when using a closed Reader or Writer.
	ErrClosed = errors.New("sketch file closed")
)

// TruncatedError reports the size of a trailing partial record.
type TruncatedError struct {
	Records    int // complete records before the partial one
	Partial    int // bytes of the partial record
	RecordSize int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("sketch file truncated: %d trailing bytes after %d records of %d bytes", e.Partial, e.Records, e.RecordSize)
}

func (e *TruncatedError) Unwrap() error { return ErrTruncated }

// NumPermMismatchError reports a record whose numPerm differs from the file.
type NumPermMismatchError struct {
	Record int
	Want   int
	Got    int
}

func (e *NumPermMismatchError) Error() string {
	return fmt.Sprintf("numPerm mismatch at record %d: file has %d, record has %d", e.Record, e.Want, e.Got)
}

func (e *NumPermMismatchError) Unwrap() error { return ErrNumPermMismatch }
