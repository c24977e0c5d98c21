package generator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiversify(t *testing.T) {
	t.Run("empty pool returns nil", func(t *testing.T) {
		assert.Nil(t, Diversify(nil, 5, 0.3))
	})

	t.Run("prefers a lower-scored disjoint-genre item over a redundant high scorer", func(t *testing.T) {
		a := Scored{MediaID: uuid.New(), Score: 1.0, Genres: []string{"Drama"}}
		b := Scored{MediaID: uuid.New(), Score: 0.95, Genres: []string{"Drama"}}
		c := Scored{MediaID: uuid.New(), Score: 0.7, Genres: []string{"Comedy"}}

		result := Diversify([]Scored{a, b, c}, 2, 0.5)
		require.Len(t, result, 2)
		assert.Equal(t, a.MediaID, result[0].MediaID)
		assert.Equal(t, c.MediaID, result[1].MediaID, "high lambda should favor the disjoint-genre item over the redundant one")
	})

	t.Run("zero lambda falls back to pure score order", func(t *testing.T) {
		a := Scored{MediaID: uuid.New(), Score: 1.0, Genres: []string{"Drama"}}
		b := Scored{MediaID: uuid.New(), Score: 0.9, Genres: []string{"Drama"}}
		result := Diversify([]Scored{a, b}, 2, 0)
		require.Len(t, result, 2)
		assert.Equal(t, a.MediaID, result[0].MediaID)
		assert.Equal(t, b.MediaID, result[1].MediaID)
	})

	t.Run("k larger than pool returns the whole pool", func(t *testing.T) {
		a := Scored{MediaID: uuid.New(), Score: 1.0, Genres: []string{"Drama"}}
		result := Diversify([]Scored{a}, 5, 0.3)
		assert.Len(t, result, 1)
	})
}
