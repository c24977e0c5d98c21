package store

import (
	"context"
	"fmt"
	"time"

	"github.com/showsync/reccore/pkg/models"
)

// RecordFeedback persists an explicit feedback row and marks the target
// recommendation viewed, per §4.5's feedback(kind, id, score?, text?)
// contract. Marking the profile stale is the caller's job (internal/
// scheduler), since that mutation belongs to internal/profile, not the
// store.
func (s *Store) RecordFeedback(ctx context.Context, fb *models.RecommendationFeedback) error {
	const query = `
		INSERT INTO recommendation_feedback (
			id, user_id, recommendation_kind, recommendation_id, feedback_type, score, text, action_taken, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.Exec(ctx, query, fb.ID, fb.UserID, fb.RecommendationKind, fb.RecommendationID, fb.FeedbackType, fb.Score, fb.Text, fb.ActionTaken, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	switch fb.RecommendationKind {
	case models.KindContent:
		return s.MarkContentViewed(ctx, fb.UserID, fb.RecommendationID)
	case models.KindGroup:
		return s.MarkGroupViewed(ctx, fb.UserID, fb.RecommendationID)
	default:
		return fmt.Errorf("unknown recommendation kind %q", fb.RecommendationKind)
	}
}

// EvictStale deletes dismissed or expired rows older than cutoff, the
// periodic eviction-sweep job's job. It operates across all users, so it
// does not take a per-user lock — each DELETE is a self-contained statement.
func (s *Store) EvictStale(ctx context.Context, cutoff time.Time) error {
	const contentQuery = `
		DELETE FROM content_recommendations
		WHERE created_at < $1 AND (dismissed_at IS NOT NULL OR expires_at < $1)
	`
	if _, err := s.db.Exec(ctx, contentQuery, cutoff); err != nil {
		return fmt.Errorf("failed to evict stale content recommendations: %w", err)
	}

	const groupQuery = `
		DELETE FROM group_recommendations
		WHERE created_at < $1 AND (dismissed_at IS NOT NULL OR expires_at < $1)
	`
	if _, err := s.db.Exec(ctx, groupQuery, cutoff); err != nil {
		return fmt.Errorf("failed to evict stale group recommendations: %w", err)
	}
	return nil
}
