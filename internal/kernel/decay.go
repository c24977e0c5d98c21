package kernel

import (
	"math"
	"sort"
	"time"
)

// ApplyTimeDecay discounts score by decayPerDay^daysOld. daysOld is the
// whole number of days between timestamp and now; a negative value (a
// timestamp in the future) is treated as 0.
func ApplyTimeDecay(score float64, timestamp, now time.Time, decayPerDay float64) float64 {
	daysOld := int(now.Sub(timestamp).Hours() / 24)
	if daysOld < 0 {
		daysOld = 0
	}
	return score * math.Pow(decayPerDay, float64(daysOld))
}

// RankedItem pairs a generic payload with the score it was ranked by.
type RankedItem[T any] struct {
	Item  T
	Score float64
}

// RankWithDecay sorts items by score descending, then multiplies each
// item's score by decayRate^position so lower ranks contribute less to
// downstream aggregation (e.g. trending snapshots).
func RankWithDecay[T any](items []RankedItem[T], decayRate float64) []RankedItem[T] {
	ranked := make([]RankedItem[T], len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i := range ranked {
		ranked[i].Score *= math.Pow(decayRate, float64(i))
	}
	return ranked
}
