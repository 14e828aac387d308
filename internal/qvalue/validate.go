package qvalue

import (
	"goqvalue/internal/errors"
)

// ValidatePValues rejects an empty vector and any value outside [0, 1].
// NaN fails the range comparison and is rejected as well.
func ValidatePValues(p []float64) error {
	if len(p) == 0 {
		return errors.RangeError("no p-values supplied")
	}
	for i, v := range p {
		if !(v >= 0 && v <= 1) {
			return errors.RangeError("p-values not in valid range [0, 1]: p[%d] = %v", i, v)
		}
	}
	return nil
}

// ValidateFDRLevel requires the control level to lie in (0, 1]
func ValidateFDRLevel(level float64) error {
	if !(level > 0 && level <= 1) {
		return errors.RangeError("fdr level must be in (0, 1], got %v", level)
	}
	return nil
}

// ValidatePi0 requires a caller-supplied pi0 to lie in (0, 1]
func ValidatePi0(pi0 float64) error {
	if !(pi0 > 0 && pi0 <= 1) {
		return errors.RangeError("pi0 must be in (0, 1], got %v", pi0)
	}
	return nil
}
