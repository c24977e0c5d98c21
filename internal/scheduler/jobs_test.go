package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestStaleProfileUserIDs(t *testing.T) {
	now := time.Date(2026, 7, 30, 3, 15, 0, 0, time.UTC)
	s, mockDB := newTestScheduler(t, now)
	defer mockDB.Close()

	u1, u2 := uuid.New(), uuid.New()
	mockDB.ExpectQuery("FROM preference_profiles WHERE confidence = 0 OR last_calculated_at").
		WithArgs(now.Add(-dailyRegenStalenessWindow)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(u1).AddRow(u2))

	ids, err := s.staleProfileUserIDs(context.Background(), now.Add(-dailyRegenStalenessWindow))
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{u1, u2}, ids)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestRecentlyActiveUserIDs(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 10, 0, 0, time.UTC)
	s, mockDB := newTestScheduler(t, now)
	defer mockDB.Close()

	u1 := uuid.New()
	since := now.Add(-24 * time.Hour)
	mockDB.ExpectQuery("SELECT DISTINCT user_id FROM interactions").WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(u1))

	ids, err := s.recentlyActiveUserIDs(context.Background(), since)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{u1}, ids)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestRunEvictionSweep(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB := newTestScheduler(t, now)
	defer mockDB.Close()

	cutoff := now.Add(-s.cfg.Scheduler.EvictionGraceWindow)
	mockDB.ExpectExec("DELETE FROM content_recommendations").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockDB.ExpectExec("DELETE FROM group_recommendations").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.RunEvictionSweep(context.Background()))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestEnqueueAll_ReturnsFirstError(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB := newTestScheduler(t, now)
	defer mockDB.Close()

	// An unbuffered queue with no reader plus a closed quit channel makes
	// enqueue return its "scheduler stopped" error at once, instead of
	// blocking the test for the full 5s grace period.
	s.jobQueue = make(chan uuid.UUID)
	close(s.quit)

	err := s.enqueueAll([]uuid.UUID{uuid.New()})
	require.Error(t, err)
}
