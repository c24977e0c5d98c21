package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/showsync/reccore/pkg/models"
)

func TestRecordFeedback_MarksContentViewed(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, _ := newTestStore(t, now)
	defer mockDB.Close()

	userID, recID := uuid.New(), uuid.New()
	score := 5
	fb := models.NewFeedback(userID, models.KindContent, recID, &score, "loved it", models.ActionViewed, now)

	mockDB.ExpectExec("INSERT INTO recommendation_feedback").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockDB.ExpectExec("UPDATE content_recommendations SET viewed_at").
		WithArgs(recID, userID, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.RecordFeedback(context.Background(), fb))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestEvictStale(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s, mockDB, _ := newTestStore(t, now)
	defer mockDB.Close()

	cutoff := now.AddDate(0, 0, -30)
	mockDB.ExpectExec("DELETE FROM content_recommendations").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mockDB.ExpectExec("DELETE FROM group_recommendations").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.EvictStale(context.Background(), cutoff))
	require.NoError(t, mockDB.ExpectationsWereMet())
}
