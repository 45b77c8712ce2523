package utils

import (
	"fmt"
	"math"
)

// MaxElements bounds the number of elements a backend materializes for one
// dataset. Dimensions come from untrusted file headers.
const MaxElements = 1 << 31

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no overflow occurs.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// Shape converts dimension sizes read from a file into an int shape,
// rejecting shapes whose element count overflows or exceeds MaxElements.
func Shape(dims []uint64) ([]int, error) {
	shape := make([]int, len(dims))
	total := uint64(1)
	for i, d := range dims {
		var err error
		total, err = SafeMultiply(total, d)
		if err != nil {
			return nil, fmt.Errorf("dimension %d: %w", i, err)
		}
		if d > MaxElements || total > MaxElements {
			return nil, fmt.Errorf("dataset too large: dimension %d makes %d elements (max %d)", i, total, uint64(MaxElements))
		}
		shape[i] = int(d)
	}
	return shape, nil
}

// Uint64s converts non-negative selection coordinates for backends taking uint64.
func Uint64s(v []int) ([]uint64, error) {
	out := make([]uint64, len(v))
	for i, x := range v {
		if x < 0 {
			return nil, fmt.Errorf("negative coordinate %d in dimension %d", x, i)
		}
		out[i] = uint64(x)
	}
	return out, nil
}
