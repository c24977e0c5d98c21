package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showsync/reccore/internal/config"
)

func testRecsConfig() config.RecommendationConfig {
	return config.RecommendationConfig{
		DecayPerDay: 0.995,
		Personality: testPersonalityConfig(),
	}
}

func newTestBuilder(t *testing.T, at time.Time) (*Builder, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)

	b := &Builder{
		db:  mockDB,
		cfg: &config.Config{Recs: testRecsConfig()},
		now: func() time.Time { return at },
	}
	return b, mockDB
}

func TestBuildProfile_NoInteractions(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	b, mockDB := newTestBuilder(t, now)
	defer mockDB.Close()

	userID := uuid.New()
	rows := pgxmock.NewRows([]string{"media_id", "rating", "status", "genres", "platforms", "release_date", "runtime_minutes", "updated_at"})
	mockDB.ExpectQuery("SELECT").WithArgs(userID).WillReturnRows(rows)

	profile, err := b.BuildProfile(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, 0.0, profile.Confidence)
	assert.Equal(t, 7.0, profile.AvgRating)
	assert.Equal(t, 0, profile.TotalInteractions)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestBuildProfile_WithInteractions(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	b, mockDB := newTestBuilder(t, now)
	defer mockDB.Close()

	userID := uuid.New()
	media1, media2 := uuid.New(), uuid.New()

	rows := pgxmock.NewRows([]string{"media_id", "rating", "status", "genres", "platforms", "release_date", "runtime_minutes", "updated_at"}).
		AddRow(media1, ptr(9.0), "COMPLETED", []string{"Drama", "Thriller"}, []string{"Netflix"}, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), intPtr(110), now.AddDate(0, 0, -5)).
		AddRow(media2, (*float64)(nil), "DROPPED", []string{"Comedy"}, []string{"Hulu"}, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), intPtr(25), now.AddDate(0, 0, -40))

	mockDB.ExpectQuery("SELECT").WithArgs(userID).WillReturnRows(rows)

	profile, err := b.BuildProfile(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 2, profile.TotalInteractions)
	assert.Equal(t, 1, profile.TotalCompleted)
	assert.Equal(t, 9.0, profile.AvgRating)
	assert.Contains(t, profile.GenreWeights, "Drama")
	assert.NotContains(t, profile.GenreWeights, "Comedy", "negative, heavily decayed influence should be pruned below epsilon")
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func ptr(f float64) *float64 { return &f }
func intPtr(i int) *int      { return &i }
