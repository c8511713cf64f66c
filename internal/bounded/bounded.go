// Package bounded provides the cursor arithmetic shared by every menu screen.
// A screen's cursor lives in a closed interval; sub-screens saturate at the
// ends while the top-level screen cycles.
package bounded

import "golang.org/x/exp/constraints"

// Clamp limits v to [min, max].
func Clamp[T constraints.Integer](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Wrap maps v into [min, max] by cycling, so min-1 wraps to max and max+1
// wraps to min. Inputs arbitrarily far outside the interval still land inside
// it.
func Wrap[T constraints.Integer](v, min, max T) T {
	span := max - min + 1
	r := (v - min) % span
	if r < 0 {
		r += span
	}
	return min + r
}
