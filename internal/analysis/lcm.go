package analysis

import (
	"fmt"
	"math/bits"
)

// GCD returns the greatest common divisor of a and b.
func GCD(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of values; 1 for no values.
// Zero values and results beyond uint64 are errors.
func LCM(values ...uint64) (uint64, error) {
	result := uint64(1)
	for _, v := range values {
		if v == 0 {
			return 0, fmt.Errorf("lcm of zero is undefined")
		}
		hi, lo := bits.Mul64(result/GCD(result, v), v)
		if hi != 0 {
			return 0, fmt.Errorf("%w: lcm(%d, %d)", ErrOverflow, result, v)
		}
		result = lo
	}
	return result, nil
}
