package generator

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/showsync/reccore/internal/kernel"
	"github.com/showsync/reccore/pkg/models"
)

// Scored is a candidate awaiting diversification: its final score, the
// genre tags used for the Jaccard overlap penalty, and the dominant
// scoring term that determines its default reason.
type Scored struct {
	MediaID uuid.UUID
	Score   float64
	Genres  []string
	Reason  models.RecommendationReason
}

// Diversify greedily selects k items from pool (expected to already be the
// top k*3 by score) maximizing score(m) - lambda*maxOverlap(m, selected),
// where overlap is Jaccard similarity over primary genre tags. Grounded on
// the teacher's intra-list diversity filter's greedy-selection shape, but
// driven by Jaccard instead of an embedding-similarity threshold.
func Diversify(pool []Scored, k int, lambda float64) []Scored {
	if len(pool) == 0 {
		return nil
	}

	candidates := make([]Scored, len(pool))
	copy(candidates, pool)
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	selected := []Scored{candidates[0]}
	remaining := candidates[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestAdjusted := math.Inf(-1)

		for i, c := range remaining {
			overlap := maxOverlap(c, selected)
			adjusted := c.Score - lambda*overlap
			if adjusted > bestAdjusted {
				bestAdjusted = adjusted
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func maxOverlap(candidate Scored, selected []Scored) float64 {
	candidateSet := kernel.StringSet(candidate.Genres)
	var max float64
	for _, s := range selected {
		overlap := kernel.JaccardSimilarity(candidateSet, kernel.StringSet(s.Genres))
		if overlap > max {
			max = overlap
		}
	}
	return max
}
