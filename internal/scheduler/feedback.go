package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/store"
	"github.com/showsync/reccore/pkg/models"
)

// View marks a recommendation viewed, serialized under the owning user's
// lock per §5's per-user mutation ordering.
func (s *Scheduler) View(ctx context.Context, userID, recID uuid.UUID, kind models.RecommendationKind) error {
	release, err := store.AcquireUserLock(ctx, s.hot, userID)
	if err != nil {
		return err
	}
	defer release(ctx)

	switch kind {
	case models.KindContent:
		return s.store.MarkContentViewed(ctx, userID, recID)
	case models.KindGroup:
		return s.store.MarkGroupViewed(ctx, userID, recID)
	default:
		return fmt.Errorf("unknown recommendation kind %q", kind)
	}
}

// Dismiss idempotently dismisses a recommendation, serialized under the
// owning user's lock.
func (s *Scheduler) Dismiss(ctx context.Context, userID, recID uuid.UUID, kind models.RecommendationKind, reason string) error {
	release, err := store.AcquireUserLock(ctx, s.hot, userID)
	if err != nil {
		return err
	}
	defer release(ctx)

	switch kind {
	case models.KindContent:
		return s.store.DismissContent(ctx, userID, recID, reason)
	case models.KindGroup:
		return s.store.DismissGroup(ctx, userID, recID, reason)
	default:
		return fmt.Errorf("unknown recommendation kind %q", kind)
	}
}

// Feedback records explicit feedback, marks the target viewed, and flags
// the profile stale so the next scheduled or on-demand rebuild re-derives
// weights — §4.5's "eventually, not synchronously, reflected" contract.
// All three mutations happen under the user's lock as one commit section.
func (s *Scheduler) Feedback(ctx context.Context, userID, recID uuid.UUID, kind models.RecommendationKind, score *int, text string) error {
	fb := models.NewFeedback(userID, kind, recID, score, text, models.ActionViewed, s.now())

	release, err := store.AcquireUserLock(ctx, s.hot, userID)
	if err != nil {
		return err
	}
	defer release(ctx)

	if err := s.store.RecordFeedback(ctx, fb); err != nil {
		return err
	}
	return profile.MarkStale(ctx, s.db, userID)
}
