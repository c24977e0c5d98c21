// Package kernel holds the Algorithm Kernel: stateless, deterministic
// mathematical primitives shared by the profile builder and the
// recommendation generator. Nothing here touches a database or a clock
// other than through explicit parameters, which keeps it trivially
// property-testable.
package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CosineSimilarity compares two sparse weight vectors keyed by category
// name (genre, platform, era, ...). Missing keys are treated as 0. Either
// side empty returns 0.
func CosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}

	va := make([]float64, 0, len(keys))
	vb := make([]float64, 0, len(keys))
	for k := range keys {
		va = append(va, a[k])
		vb = append(vb, b[k])
	}

	na := floats.Norm(va, 2)
	nb := floats.Norm(vb, 2)
	if na == 0 || nb == 0 {
		return 0
	}

	return floats.Dot(va, vb) / (na * nb)
}

// JaccardSimilarity compares two tag sets. By convention (used only for
// primary-genre overlap), both empty returns 1.
func JaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	intersection := 0
	union := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		union[k] = struct{}{}
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	for k := range b {
		union[k] = struct{}{}
	}
	if len(union) == 0 {
		return 1
	}
	return float64(intersection) / float64(len(union))
}

// StringSet is a convenience constructor for JaccardSimilarity callers
// working from a slice of tags.
func StringSet(tags []string) map[string]struct{} {
	s := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// PearsonCorrelation returns 0 when lengths differ, there are fewer than 2
// samples, or either series has zero variance (stat.Correlation would
// divide by zero in that case).
func PearsonCorrelation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return 0
	}
	corr := stat.Correlation(xs, ys, nil)
	if math.IsNaN(corr) {
		return 0
	}
	return corr
}
