package kernel

import "math"

// Sigmoid maps any real x to (0,1); steepness controls how sharply it
// transitions around x=0. Used to calibrate combined multi-algorithm scores
// back into a bounded range.
func Sigmoid(x, steepness float64) float64 {
	return 1 / (1 + math.Exp(-steepness*x))
}
