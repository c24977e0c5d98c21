package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/pkg/models"
)

// fakeCache is an in-memory CacheClient double, avoiding a live Redis
// instance in unit tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func newTestStore(t *testing.T, at time.Time) (*Store, pgxmock.PgxPoolIface, *fakeCache) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)

	cache := newFakeCache()
	s := &Store{
		db:   mockDB,
		warm: cache,
		cfg:  &config.Config{Recs: config.RecommendationConfig{MaxActivePerUser: 50}},
		now:  func() time.Time { return at },
	}
	return s, mockDB, cache
}

func TestSaveContentRecommendations_SkipsAlreadyActive(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, _ := newTestStore(t, now)
	defer mockDB.Close()

	userID := uuid.New()
	existingMedia := uuid.New()
	newMedia := uuid.New()

	activeRows := pgxmock.NewRows([]string{"media_id"}).AddRow(existingMedia)
	mockDB.ExpectQuery("SELECT media_id").WithArgs(userID, now).WillReturnRows(activeRows)

	mockDB.ExpectExec("INSERT INTO content_recommendations").
		WithArgs(pgxmock.AnyArg(), userID, newMedia, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mockDB.ExpectQuery("SELECT COUNT").WithArgs(userID).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	recs := []*models.ContentRecommendation{
		{ID: uuid.New(), UserID: userID, MediaID: existingMedia, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: uuid.New(), UserID: userID, MediaID: newMedia, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}

	inserted, err := s.SaveContentRecommendations(context.Background(), userID, recs)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSaveContentRecommendations_EvictsOverCap(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, _ := newTestStore(t, now)
	s.cfg.Recs.MaxActivePerUser = 1
	defer mockDB.Close()

	userID := uuid.New()
	newMedia := uuid.New()

	mockDB.ExpectQuery("SELECT media_id").WithArgs(userID, now).WillReturnRows(pgxmock.NewRows([]string{"media_id"}))
	mockDB.ExpectExec("INSERT INTO content_recommendations").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockDB.ExpectQuery("SELECT COUNT").WithArgs(userID).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mockDB.ExpectExec("DELETE FROM content_recommendations").
		WithArgs(userID, now, 2).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	recs := []*models.ContentRecommendation{
		{ID: uuid.New(), UserID: userID, MediaID: newMedia, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}

	inserted, err := s.SaveContentRecommendations(context.Background(), userID, recs)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestMarkContentViewed_InvalidatesCachedPages(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, cache := newTestStore(t, now)
	defer mockDB.Close()

	userID, recID := uuid.New(), uuid.New()
	cache.data["recs:content:"+userID.String()+":0:10"] = `{"content":[]}`

	mockDB.ExpectExec("UPDATE content_recommendations SET viewed_at").
		WithArgs(recID, userID, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.MarkContentViewed(context.Background(), userID, recID))
	assert.Empty(t, cache.data["recs:content:"+userID.String()+":0:10"], "a successful write must invalidate cached pages")
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestMarkContentViewed_UnknownRecommendation(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, _ := newTestStore(t, now)
	defer mockDB.Close()

	userID, recID := uuid.New(), uuid.New()

	mockDB.ExpectExec("UPDATE content_recommendations SET viewed_at").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockDB.ExpectQuery("SELECT 1 FROM content_recommendations").
		WithArgs(recID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"one"}))

	err := s.MarkContentViewed(context.Background(), userID, recID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestDismissContent_Idempotent(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, _ := newTestStore(t, now)
	defer mockDB.Close()

	userID, recID := uuid.New(), uuid.New()

	mockDB.ExpectExec("UPDATE content_recommendations SET dismissed_at").
		WithArgs(recID, userID, now, "not interested").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.DismissContent(context.Background(), userID, recID, "not interested"))

	// Dismissing again updates no row; the recommendation still exists, so
	// the second call succeeds as well.
	mockDB.ExpectExec("UPDATE content_recommendations SET dismissed_at").
		WithArgs(recID, userID, now, "not interested").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockDB.ExpectQuery("SELECT 1 FROM content_recommendations").
		WithArgs(recID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"one"}).AddRow(1))

	require.NoError(t, s.DismissContent(context.Background(), userID, recID, "not interested"))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestListActiveContent_CacheHit(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, cache := newTestStore(t, now)
	defer mockDB.Close()

	userID := uuid.New()
	key := contentCacheKey(userID, 0, 10)
	cache.data[key] = `{"content":[],"page":0,"size":10,"totalElements":0}`

	resp, err := s.ListActiveContent(context.Background(), userID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalElements)
	require.NoError(t, mockDB.ExpectationsWereMet(), "a cache hit must not touch the database")
}
