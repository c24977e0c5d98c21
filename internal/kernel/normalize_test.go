package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeScores(t *testing.T) {
	t.Run("all equal maps to 0.5", func(t *testing.T) {
		out := NormalizeScores(map[string]float64{"a": 3, "b": 3, "c": 3})
		for _, v := range out {
			assert.Equal(t, 0.5, v)
		}
	})

	t.Run("output within 0 and 1", func(t *testing.T) {
		out := NormalizeScores(map[string]float64{"a": 1, "b": 5, "c": 10})
		for _, v := range out {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.Equal(t, 0.0, out["a"])
		assert.Equal(t, 1.0, out["c"])
	})

	t.Run("preserves relative order of distinct inputs", func(t *testing.T) {
		out := NormalizeScores(map[string]float64{"a": 1, "b": 5, "c": 10})
		assert.Less(t, out["a"], out["b"])
		assert.Less(t, out["b"], out["c"])
	})

	t.Run("empty input returns empty output", func(t *testing.T) {
		assert.Empty(t, NormalizeScores(nil))
	})
}

func TestWeightedAverage(t *testing.T) {
	t.Run("basic weighted average", func(t *testing.T) {
		v := WeightedAverage([]float64{10, 20}, []float64{1, 3})
		assert.InDelta(t, 17.5, v, 1e-9)
	})

	t.Run("mismatched lengths return 0", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedAverage([]float64{1, 2}, []float64{1}))
	})

	t.Run("empty inputs return 0", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedAverage(nil, nil))
	})

	t.Run("zero total weight returns 0", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedAverage([]float64{1, 2}, []float64{0, 0}))
	})
}
