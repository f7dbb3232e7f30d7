package conv

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// ErrSizeOverflow is returned when a slot count times the element size does
// not fit in an int64.
var ErrSizeOverflow = errors.New("size overflow")

// SlotBytes returns n * elemSize as an int64.
func SlotBytes(n int, elemSize uintptr) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative slot count %d: %w", n, ErrSizeOverflow)
	}
	hi, lo := bits.Mul64(uint64(n), uint64(elemSize))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, fmt.Errorf("%d slots of %d bytes: %w", n, elemSize, ErrSizeOverflow)
	}
	return int64(lo), nil
}

// MaxSlots returns the largest slot count whose byte size fits in an int64.
// Zero-sized elements have no upper bound other than math.MaxInt.
func MaxSlots(elemSize uintptr) int {
	if elemSize == 0 {
		return math.MaxInt
	}
	limit := uint64(math.MaxInt64) / uint64(elemSize)
	if limit > math.MaxInt {
		return math.MaxInt
	}
	return int(limit)
}
