package kernel

import "math"

// CalculateDiversity returns the Shannon entropy of a weight distribution,
// normalized by log2(|categories|) so the result sits in [0,1]. Empty or
// single-category distributions have no room for diversity and return 0.
func CalculateDiversity(distribution map[string]float64) float64 {
	if len(distribution) <= 1 {
		return 0
	}

	var total float64
	for _, w := range distribution {
		total += w
	}
	if total <= 0 {
		return 0
	}

	var entropy float64
	for _, w := range distribution {
		if w <= 0 {
			continue
		}
		p := w / total
		entropy -= p * math.Log2(p)
	}

	maxEntropy := math.Log2(float64(len(distribution)))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

// CalculateConfidenceScore blends interaction volume, account age, and
// taste diversity into a single [0,1] confidence figure: it saturates each
// component at its own cap (50 interactions, 30 days) before weighting.
func CalculateConfidenceScore(interactionCount int, timeSpanDays float64, diversity float64) float64 {
	volumeTerm := 0.5 * math.Min(1, float64(interactionCount)/50)
	ageTerm := 0.3 * math.Min(1, timeSpanDays/30)
	diversityTerm := 0.2 * diversity
	return volumeTerm + ageTerm + diversityTerm
}
