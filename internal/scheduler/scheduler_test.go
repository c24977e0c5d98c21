package scheduler

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/generator"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/store"
	"github.com/showsync/reccore/pkg/models"
)

func newTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testConfig() *config.Config {
	return &config.Config{
		Recs: config.RecommendationConfig{
			Weights:                      config.WeightConfig{Genre: 0.4, Rating: 0.3, Platform: 0.15, Era: 0.15},
			MinInteractionsForConfidence: 5,
			MinConfidenceToPersonalize:   0.3,
			PersonalizationFactor:        1.2,
			DiversityFactor:              0.3,
			ExplorationFactor:            0.05,
			ContentRecExpiry:             14 * 24 * time.Hour,
			GroupRecExpiry:               7 * 24 * time.Hour,
			CandidatePoolCap:             10,
			MaxActivePerUser:             500,
			DecayPerDay:                  0.995,
			GroupWeights:                 config.GroupWeightConfig{Alpha: 0.4, Beta: 0.2, Gamma: 0.15, Delta: 0.25},
			Personality: config.PersonalityConfig{
				BingeInteractionsPerWeek: 10,
				CriticMinRatingCount:     20,
				CriticMaxVariance:        1.5,
				ExplorerMinDiversity:     0.7,
				ComfortMaxDiversity:      0.2,
				CompletionistMinRate:     0.85,
				SamplerMaxCompletionRate: 0.25,
				TrendyMinOverlap:         0.5,
			},
		},
		Scheduler: config.SchedulerConfig{
			GenerationThreadPoolSize: 2,
			ActiveUsersHoursBack:     24,
			EvictionGraceWindow:      30 * 24 * time.Hour,
		},
	}
}

func newTestScheduler(t *testing.T, at time.Time) (*Scheduler, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)

	cfg := testConfig()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	b := profile.NewBuilder(mockDB, cfg)
	g := generator.NewGenerator(mockDB, nil, b, cfg, logger)
	st := store.NewStore(mockDB, nil, cfg)

	hot := newTestRedis(t)

	s := New(mockDB, hot, st, g, b, cfg, logger)
	s.now = func() time.Time { return at }
	return s, mockDB
}

func emptyInteractionRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"media_id", "rating", "status", "genres", "platforms", "release_date", "runtime_minutes", "updated_at",
	})
}

func coldProfileRows(userID uuid.UUID) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"user_id", "genre_weights", "platform_weights", "era_weights", "preferred_length",
		"avg_rating", "rating_variance", "total_interactions", "total_completed",
		"personality", "confidence", "last_calculated_at",
	}).AddRow(userID, []byte(`{}`), []byte(`{}`), []byte(`{}`), models.LengthMedium,
		0.0, 0.0, 0, 0, models.PersonalityCasual, 0.0, time.Now())
}

func trendingMediaRows() *pgxmock.Rows {
	rating := 8.0
	count := 50
	return pgxmock.NewRows([]string{"id", "title", "type", "genres", "platforms", "release_date", "runtime_minutes", "average_rating", "rating_count"}).
		AddRow(uuid.New(), "Movie One", models.MediaType("MOVIE"), []string{"Drama"}, []string{"Netflix"}, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), intPtr(110), &rating, &count).
		AddRow(uuid.New(), "Movie Two", models.MediaType("MOVIE"), []string{"Comedy"}, []string{"Hulu"}, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), intPtr(95), &rating, &count)
}

func intPtr(i int) *int { return &i }

// expectFullColdStartPipeline wires the mock expectations for one full
// GenerateForUser run with no prior interactions: profile rebuild to the
// zero-confidence default, cold start into trending, and a clean insert
// with nothing to evict.
func expectFullColdStartPipeline(mockDB pgxmock.PgxPoolIface, userID uuid.UUID) {
	mockDB.ExpectQuery("FROM interactions i").WithArgs(userID).WillReturnRows(emptyInteractionRows())
	mockDB.ExpectExec("INSERT INTO preference_profiles").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockDB.ExpectQuery("SELECT user_id, genre_weights").WithArgs(userID).WillReturnRows(coldProfileRows(userID))
	mockDB.ExpectQuery("SELECT m.id").WillReturnRows(trendingMediaRows())
	mockDB.ExpectQuery("SELECT media_id FROM content_recommendations").WithArgs(userID, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"media_id"}))
	mockDB.ExpectExec("INSERT INTO content_recommendations").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockDB.ExpectExec("INSERT INTO content_recommendations").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockDB.ExpectQuery("SELECT COUNT\\(\\*\\) FROM content_recommendations").WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
}

func TestGenerateForUser_ColdStartPersistsTrending(t *testing.T) {
	now := time.Date(2026, 7, 30, 3, 15, 0, 0, time.UTC)
	s, mockDB := newTestScheduler(t, now)
	defer mockDB.Close()

	userID := uuid.New()
	expectFullColdStartPipeline(mockDB, userID)

	count, err := s.GenerateForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

// TestGenerateForUser_SingleFlightDeduplicates asserts that two concurrent
// calls for the same user share one execution: only one full pipeline's
// worth of queries is mocked, so a second, independent execution would
// surface as an unexpected-query error from pgxmock.
func TestGenerateForUser_SingleFlightDeduplicates(t *testing.T) {
	now := time.Date(2026, 7, 30, 3, 15, 0, 0, time.UTC)
	s, mockDB := newTestScheduler(t, now)
	defer mockDB.Close()

	userID := uuid.New()
	expectFullColdStartPipeline(mockDB, userID)

	var wg sync.WaitGroup
	results := make([]int, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.GenerateForUser(context.Background(), userID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, results[0], results[1])
	require.NoError(t, mockDB.ExpectationsWereMet())
}
