package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// dailyRegenStalenessWindow is "T" from §4.5's "lastCalculatedAt older than
// T" — spec.md leaves the exact value open, so a full day is used: a
// profile not recalculated since yesterday's run is eligible again today
// (documented as an Open Question decision in DESIGN.md).
const dailyRegenStalenessWindow = 24 * time.Hour

// DailyRegeneration enqueues every user whose profile is flagged stale
// (confidence reset to 0 by a feedback event) or has not been recalculated
// within the staleness window. The admin "generate" endpoint does not use
// it; that trigger goes through GenerateAll.
func (s *Scheduler) DailyRegeneration(ctx context.Context) error {
	cutoff := s.now().Add(-dailyRegenStalenessWindow)
	ids, err := s.staleProfileUserIDs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list users eligible for regeneration: %w", err)
	}
	return s.enqueueAll(ids)
}

// ActiveUsersRefresh enqueues users who logged an interaction within the
// configured lookback window, so recently-active users get fresher
// recommendations between daily full regenerations.
func (s *Scheduler) ActiveUsersRefresh(ctx context.Context) error {
	since := s.now().Add(-time.Duration(s.cfg.Scheduler.ActiveUsersHoursBack) * time.Hour)
	ids, err := s.recentlyActiveUserIDs(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to list recently active users: %w", err)
	}
	return s.enqueueAll(ids)
}

// RunEvictionSweep deletes dismissed/expired recommendation rows older than
// the configured grace window, across all users.
func (s *Scheduler) RunEvictionSweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.Scheduler.EvictionGraceWindow)
	return s.store.EvictStale(ctx, cutoff)
}

// GenerateAll is the admin "trigger for all users" operation: every user
// with an existing profile is enqueued, regardless of staleness.
func (s *Scheduler) GenerateAll(ctx context.Context) error {
	ids, err := s.allProfileUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	return s.enqueueAll(ids)
}

// Enqueue dispatches a single user's generation job onto the worker pool
// without waiting for it to run, backing the "generate/me" on-demand
// trigger endpoint.
func (s *Scheduler) Enqueue(userID uuid.UUID) error {
	return s.enqueue(userID)
}

func (s *Scheduler) enqueueAll(ids []uuid.UUID) error {
	var firstErr error
	for _, id := range ids {
		if err := s.enqueue(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Scheduler) staleProfileUserIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	const query = `SELECT user_id FROM preference_profiles WHERE confidence = 0 OR last_calculated_at < $1`
	return s.queryUserIDs(ctx, query, cutoff)
}

func (s *Scheduler) allProfileUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	const query = `SELECT user_id FROM preference_profiles`
	return s.queryUserIDs(ctx, query)
}

func (s *Scheduler) recentlyActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	const query = `SELECT DISTINCT user_id FROM interactions WHERE updated_at > $1`
	return s.queryUserIDs(ctx, query, since)
}

func (s *Scheduler) queryUserIDs(ctx context.Context, query string, args ...interface{}) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
