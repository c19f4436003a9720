package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrIDTooLong is returned when an identifier exceeds IDSize bytes.
	ErrIDTooLong = errors.New("document id too long")
	// ErrInvalidID is returned for identifiers that cannot round-trip.
	ErrInvalidID = errors.New("invalid document id")
	// ErrShortBuffer is returned when a buffer is smaller than a record.
	ErrShortBuffer = errors.New("buffer too short for record")
	// ErrInvalidNumPerm is returned for a zero, negative or oversized numPerm.
	ErrInvalidNumPerm = errors.New("invalid numPerm")
)

// IDTooLongError reports an identifier that does not fit the record.
type IDTooLongError struct {
	ID string
}

func (e *IDTooLongError) Error() string {
	return fmt.Sprintf("document id too long: %d bytes exceeds %d (%q)", len(e.ID), IDSize, e.ID)
}

func (e *IDTooLongError) Unwrap() error { return ErrIDTooLong }

// ShortBufferError reports an undersized decode buffer.
type ShortBufferError struct {
	Need int
	Have int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("buffer too short for record: need %d bytes, have %d", e.Need, e.Have)
}

func (e *ShortBufferError) Unwrap() error { return ErrShortBuffer }
