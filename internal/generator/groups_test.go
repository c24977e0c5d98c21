package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/showsync/reccore/pkg/models"
)

func TestGroupSizeFit(t *testing.T) {
	assert.Equal(t, 1.0, groupSizeFit(idealGroupSize))
	assert.Less(t, groupSizeFit(2), 1.0)
	assert.Equal(t, 0.0, groupSizeFit(idealGroupSize*2))
	assert.Equal(t, 0.0, groupSizeFit(0))
}

func TestMeanCompatibility(t *testing.T) {
	p := &models.PreferenceProfile{GenreWeights: map[string]float64{"Drama": 1.0}}

	t.Run("no members returns 0", func(t *testing.T) {
		assert.Equal(t, 0.0, meanCompatibility(p, nil))
	})

	t.Run("identical members score 1", func(t *testing.T) {
		members := []*models.PreferenceProfile{
			{GenreWeights: map[string]float64{"Drama": 1.0}},
			{GenreWeights: map[string]float64{"Drama": 1.0}},
		}
		assert.InDelta(t, 1.0, meanCompatibility(p, members), 1e-9)
	})
}

func TestGroupGenreCompatibility(t *testing.T) {
	p := &models.PreferenceProfile{GenreWeights: map[string]float64{"Drama": 1.0}}
	assert.InDelta(t, 1.0, groupGenreCompatibility(p, []string{"Drama"}), 1e-9)
	assert.Equal(t, 0.0, groupGenreCompatibility(p, []string{"Horror"}))
}
