package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// AlignUp rounds v up to the next multiple of alignment. A zero alignment
// returns v unchanged.
func AlignUp[T constraints.Integer](v, alignment T) T {
	if alignment == 0 {
		return v
	}
	if r := v % alignment; r != 0 {
		return v + alignment - r
	}
	return v
}

// IsAligned reports whether v is a multiple of alignment.
func IsAligned[T constraints.Integer](v, alignment T) bool {
	return alignment != 0 && v%alignment == 0
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
