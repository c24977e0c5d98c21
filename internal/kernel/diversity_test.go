package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDiversity(t *testing.T) {
	t.Run("empty distribution is 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateDiversity(nil))
	})

	t.Run("single category is 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateDiversity(map[string]float64{"drama": 1}))
	})

	t.Run("uniform distribution over k keys is 1", func(t *testing.T) {
		dist := map[string]float64{"a": 0.25, "b": 0.25, "c": 0.25, "d": 0.25}
		assert.InDelta(t, 1.0, CalculateDiversity(dist), 1e-9)
	})

	t.Run("skewed distribution is below 1", func(t *testing.T) {
		dist := map[string]float64{"a": 0.9, "b": 0.1}
		d := CalculateDiversity(dist)
		assert.Greater(t, d, 0.0)
		assert.Less(t, d, 1.0)
	})
}

func TestCalculateConfidenceScore(t *testing.T) {
	t.Run("saturates at the caps", func(t *testing.T) {
		v := CalculateConfidenceScore(1000, 1000, 1)
		assert.InDelta(t, 1.0, v, 1e-9)
	})

	t.Run("zero interactions and age with zero diversity is 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateConfidenceScore(0, 0, 0))
	})

	t.Run("weighted components", func(t *testing.T) {
		v := CalculateConfidenceScore(25, 15, 0.5)
		assert.InDelta(t, 0.5*0.5+0.3*0.5+0.2*0.5, v, 1e-9)
	})
}

func TestSigmoid(t *testing.T) {
	t.Run("zero maps to 0.5", func(t *testing.T) {
		assert.InDelta(t, 0.5, Sigmoid(0, 1), 1e-9)
	})

	t.Run("stays within bounds", func(t *testing.T) {
		for _, x := range []float64{-100, -1, 0, 1, 100} {
			v := Sigmoid(x, 1)
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	})

	t.Run("steeper slope pushes further from 0.5 near origin", func(t *testing.T) {
		assert.Greater(t, Sigmoid(1, 5), Sigmoid(1, 1))
	})
}
