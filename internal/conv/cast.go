package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrRange is returned when a value does not fit the target field.
var ErrRange = errors.New("value out of range")

// Int32 narrows v to int32.
func Int32(v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d does not fit int32", ErrRange, v)
	}
	return int32(v), nil
}

// Uint32 narrows v to uint32.
func Uint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrRange, v)
	}
	return uint32(v), nil
}

// Count converts a numPerm or record count to int. Counts are in
// [1, MaxInt32] whatever the width of the field they were stored in.
func Count[T ~int | ~int32 | ~uint32](v T) (int, error) {
	if int64(v) < 1 || int64(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: count %d", ErrRange, v)
	}
	return int(v), nil
}
