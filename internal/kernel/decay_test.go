package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyTimeDecay(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	t.Run("no elapsed time leaves score unchanged", func(t *testing.T) {
		assert.InDelta(t, 10.0, ApplyTimeDecay(10, now, now, 0.995), 1e-9)
	})

	t.Run("future timestamp treated as 0 days old", func(t *testing.T) {
		future := now.Add(24 * time.Hour)
		assert.InDelta(t, 10.0, ApplyTimeDecay(10, future, now, 0.995), 1e-9)
	})

	t.Run("decays per whole day elapsed", func(t *testing.T) {
		ts := now.Add(-10 * 24 * time.Hour)
		expected := 10 * pow(0.995, 10)
		assert.InDelta(t, expected, ApplyTimeDecay(10, ts, now, 0.995), 1e-9)
	})
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func TestRankWithDecay(t *testing.T) {
	items := []RankedItem[string]{
		{Item: "a", Score: 0.5},
		{Item: "b", Score: 0.9},
		{Item: "c", Score: 0.2},
	}

	ranked := RankWithDecay(items, 0.9)

	assert.Equal(t, "b", ranked[0].Item)
	assert.Equal(t, "a", ranked[1].Item)
	assert.Equal(t, "c", ranked[2].Item)
	assert.InDelta(t, 0.9, ranked[0].Score, 1e-9)
	assert.InDelta(t, 0.5*0.9, ranked[1].Score, 1e-9)
	assert.InDelta(t, 0.2*0.9*0.9, ranked[2].Score, 1e-9)
}
