package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/generator"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/scheduler"
	"github.com/showsync/reccore/internal/store"
)

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
			RealtimeBlend:                config.RealtimeBlend{Collaborative: 0.7, Trending: 0.3},
			CacheTTLs:                    config.CacheTTLConfig{Insights: time.Minute},
			GroupWeights:                 config.GroupWeightConfig{Alpha: 0.4, Beta: 0.2, Gamma: 0.15, Delta: 0.25},
		},
		Scheduler: config.SchedulerConfig{
			GenerationThreadPoolSize: 1,
		},
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// newTestHandlers wires a full Handlers value against a pgxmock pool and a
// miniredis-backed hot/warm tier, the same harness scheduler_test.go uses
// one package over.
func newTestHandlers(t *testing.T) (*Handlers, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	cfg := testConfig()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hot := newTestRedis(t)
	warm := newTestRedis(t)

	b := profile.NewBuilder(mockDB, cfg)
	gen := generator.NewGenerator(mockDB, nil, b, cfg, logger)
	st := store.NewStore(mockDB, store.RedisCacheClient{Client: warm}, cfg)
	sched := scheduler.New(mockDB, hot, st, gen, b, cfg, logger)

	return New(mockDB, hot, st, gen, b, sched, nil, cfg, logger), mockDB
}

func newAuthedContext(method, path string) (*gin.Context, *httptest.ResponseRecorder, uuid.UUID) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)

	userID := uuid.New()
	c.Set("user_id", userID)
	c.Set("user_tier", "standard")
	return c, w, userID
}

func TestQueryInt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&size=9000&bad=x", nil)

	require.Equal(t, 3, queryInt(c, "page", 0, 0, 100000))
	require.Equal(t, 20, queryInt(c, "size", 20, 1, 100)) // out of range falls back to default
	require.Equal(t, 5, queryInt(c, "missing", 5, 0, 10))
}

func TestActionHandler_View_UnknownRecommendation(t *testing.T) {
	handlers, mockDB := newTestHandlers(t)
	c, w, userID := newAuthedContext(http.MethodPost, "/recommendations/CONTENT/x/view")

	recID := uuid.New()
	c.Params = gin.Params{{Key: "kind", Value: "CONTENT"}, {Key: "id", Value: recID.String()}}

	mockDB.ExpectExec("UPDATE content_recommendations SET viewed_at").
		WithArgs(recID, userID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockDB.ExpectQuery("SELECT 1 FROM content_recommendations").
		WithArgs(recID, userID).
		WillReturnError(pgx.ErrNoRows)

	handlers.Action.View(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "RECOMMENDATION_NOT_FOUND", body["error"]["code"])
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestActionHandler_ParseKindAndID_Invalid(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	c, w, _ := newAuthedContext(http.MethodPost, "/recommendations/BOGUS/x/view")
	c.Params = gin.Params{{Key: "kind", Value: "BOGUS"}, {Key: "id", Value: uuid.New().String()}}

	handlers.Action.View(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendationHandler_ByType_InvalidReason(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	c, w, _ := newAuthedContext(http.MethodGet, "/recommendations/type?type=NOT_A_REASON")
	c.Request.URL.RawQuery = "type=NOT_A_REASON"

	handlers.Recommendation.ByType(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeHandler_Generate_Accepted(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	c, w, _ := newAuthedContext(http.MethodPost, "/me/generate")

	handlers.Me.Generate(c)

	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestAdminHandler_Generate_Accepted(t *testing.T) {
	handlers, mockDB := newTestHandlers(t)
	c, w, _ := newAuthedContext(http.MethodPost, "/admin/generate")

	mockDB.ExpectQuery("SELECT user_id FROM preference_profiles").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}))

	handlers.Admin.Generate(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.NoError(t, mockDB.ExpectationsWereMet())
}
