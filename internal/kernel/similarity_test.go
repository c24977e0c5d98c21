package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical non-zero vectors are 1", func(t *testing.T) {
		v := map[string]float64{"drama": 0.8, "comedy": 0.2}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := map[string]float64{"drama": 0.8, "comedy": 0.2}
		b := map[string]float64{"drama": 0.1, "action": 0.9}
		assert.InDelta(t, CosineSimilarity(a, b), CosineSimilarity(b, a), 1e-9)
	})

	t.Run("either side empty is 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity(nil, map[string]float64{"drama": 1}))
		assert.Equal(t, 0.0, CosineSimilarity(map[string]float64{"drama": 1}, nil))
	})

	t.Run("disjoint keys is 0", func(t *testing.T) {
		a := map[string]float64{"drama": 1}
		b := map[string]float64{"comedy": 1}
		assert.Equal(t, 0.0, CosineSimilarity(a, b))
	})
}

func TestJaccardSimilarity(t *testing.T) {
	t.Run("both empty by convention is 1", func(t *testing.T) {
		assert.Equal(t, 1.0, JaccardSimilarity(nil, nil))
	})

	t.Run("full overlap is 1", func(t *testing.T) {
		s := StringSet([]string{"sci-fi", "thriller"})
		assert.Equal(t, 1.0, JaccardSimilarity(s, s))
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := StringSet([]string{"sci-fi", "thriller"})
		b := StringSet([]string{"sci-fi", "comedy"})
		assert.InDelta(t, 1.0/3.0, JaccardSimilarity(a, b), 1e-9)
	})
}

func TestPearsonCorrelation(t *testing.T) {
	t.Run("perfect positive correlation", func(t *testing.T) {
		xs := []float64{1, 2, 3, 4, 5}
		ys := []float64{2, 4, 6, 8, 10}
		assert.InDelta(t, 1.0, PearsonCorrelation(xs, ys), 1e-9)
	})

	t.Run("mismatched lengths return 0", func(t *testing.T) {
		assert.Equal(t, 0.0, PearsonCorrelation([]float64{1, 2}, []float64{1}))
	})

	t.Run("fewer than 2 samples returns 0", func(t *testing.T) {
		assert.Equal(t, 0.0, PearsonCorrelation([]float64{1}, []float64{1}))
	})

	t.Run("zero variance returns 0", func(t *testing.T) {
		assert.Equal(t, 0.0, PearsonCorrelation([]float64{5, 5, 5}, []float64{1, 2, 3}))
	})
}
