// Package store implements the Recommendation Store & Lifecycle Manager: it
// owns the active recommendation set per user, enforces the per-user cap via
// priority eviction, serves paged reads through a short-TTL cache, and
// drives the view/dismiss state machine.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/pkg/models"
)

// DatabaseQuerier is the same narrow pgx surface internal/profile and
// internal/generator share, kept as a type alias to avoid an import cycle.
type DatabaseQuerier = profile.DatabaseQuerier

type Store struct {
	db   DatabaseQuerier
	warm CacheClient
	cfg  *config.Config
	now  func() time.Time
}

// CacheClient is the narrow Redis surface the read-through cache needs.
type CacheClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

func NewStore(db DatabaseQuerier, warm CacheClient, cfg *config.Config) *Store {
	return &Store{db: db, warm: warm, cfg: cfg, now: time.Now}
}

// SaveContentRecommendations persists a generator batch for one user: rows
// whose media is already active are skipped (the "generation is idempotent
// on retry" invariant), the rest are inserted, and the per-user cap is
// enforced by priority eviction. Callers MUST hold the user's lock
// (AcquireUserLock) before calling this.
func (s *Store) SaveContentRecommendations(ctx context.Context, userID uuid.UUID, recs []*models.ContentRecommendation) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	now := s.now()
	active, err := s.activeContentMediaIDs(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, r := range recs {
		if active[r.MediaID] {
			continue
		}
		if err := s.insertContentRecommendation(ctx, r); err != nil {
			return inserted, err
		}
		active[r.MediaID] = true
		inserted++
	}

	if inserted > 0 {
		if err := s.invalidateContentCache(ctx, userID); err != nil {
			return inserted, err
		}
		if err := s.enforceContentCap(ctx, userID, now); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// SaveGroupRecommendations mirrors SaveContentRecommendations for group
// suggestions, deduplicating on (userId, groupId) instead of (userId, mediaId).
func (s *Store) SaveGroupRecommendations(ctx context.Context, userID uuid.UUID, recs []*models.GroupRecommendation) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	now := s.now()
	active, err := s.activeGroupIDs(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, r := range recs {
		if active[r.GroupID] {
			continue
		}
		if err := s.insertGroupRecommendation(ctx, r); err != nil {
			return inserted, err
		}
		active[r.GroupID] = true
		inserted++
	}

	if inserted > 0 {
		if err := s.invalidateGroupCache(ctx, userID); err != nil {
			return inserted, err
		}
		if err := s.enforceGroupCap(ctx, userID, now); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

func (s *Store) activeContentMediaIDs(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error) {
	const query = `
		SELECT media_id FROM content_recommendations
		WHERE user_id = $1 AND dismissed_at IS NULL AND expires_at > $2
	`
	rows, err := s.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active content recommendations: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]bool{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan active media id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *Store) activeGroupIDs(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error) {
	const query = `
		SELECT group_id FROM group_recommendations
		WHERE user_id = $1 AND dismissed_at IS NULL AND expires_at > $2
	`
	rows, err := s.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active group recommendations: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]bool{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan active group id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *Store) insertContentRecommendation(ctx context.Context, r *models.ContentRecommendation) error {
	const query = `
		INSERT INTO content_recommendations (
			id, user_id, media_id, score, reason, explanation, type, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.Exec(ctx, query, r.ID, r.UserID, r.MediaID, r.Score, r.Reason, r.Explanation, r.Type, r.CreatedAt, r.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert content recommendation: %w", err)
	}
	return nil
}

func (s *Store) insertGroupRecommendation(ctx context.Context, r *models.GroupRecommendation) error {
	const query = `
		INSERT INTO group_recommendations (
			id, user_id, group_id, score, reason, explanation, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.Exec(ctx, query, r.ID, r.UserID, r.GroupID, r.Score, r.Reason, r.Explanation, r.CreatedAt, r.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert group recommendation: %w", err)
	}
	return nil
}

// enforceContentCap deletes rows in priority order — dismissed, expired,
// viewed-and-oldest, oldest — until the user's stored row count is back at
// or below maxActivePerUser.
func (s *Store) enforceContentCap(ctx context.Context, userID uuid.UUID, now time.Time) error {
	count, err := s.countRows(ctx, "content_recommendations", userID)
	if err != nil {
		return err
	}
	excess := count - s.cfg.Recs.MaxActivePerUser
	if excess <= 0 {
		return nil
	}

	const query = `
		DELETE FROM content_recommendations
		WHERE id IN (
			SELECT id FROM content_recommendations
			WHERE user_id = $1
			ORDER BY
				CASE
					WHEN dismissed_at IS NOT NULL THEN 0
					WHEN expires_at <= $2 THEN 1
					WHEN viewed_at IS NOT NULL THEN 2
					ELSE 3
				END ASC,
				created_at ASC
			LIMIT $3
		)
	`
	if _, err := s.db.Exec(ctx, query, userID, now, excess); err != nil {
		return fmt.Errorf("failed to evict content recommendations for %s: %w", userID, err)
	}
	return nil
}

func (s *Store) enforceGroupCap(ctx context.Context, userID uuid.UUID, now time.Time) error {
	count, err := s.countRows(ctx, "group_recommendations", userID)
	if err != nil {
		return err
	}
	excess := count - s.cfg.Recs.MaxActivePerUser
	if excess <= 0 {
		return nil
	}

	const query = `
		DELETE FROM group_recommendations
		WHERE id IN (
			SELECT id FROM group_recommendations
			WHERE user_id = $1
			ORDER BY
				CASE
					WHEN dismissed_at IS NOT NULL THEN 0
					WHEN expires_at <= $2 THEN 1
					WHEN viewed_at IS NOT NULL THEN 2
					ELSE 3
				END ASC,
				created_at ASC
			LIMIT $3
		)
	`
	if _, err := s.db.Exec(ctx, query, userID, now, excess); err != nil {
		return fmt.Errorf("failed to evict group recommendations for %s: %w", userID, err)
	}
	return nil
}

func (s *Store) countRows(ctx context.Context, table string, userID uuid.UUID) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1`, table)
	var count int
	if err := s.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// MarkContentViewed is idempotent: a row already viewed is left untouched.
func (s *Store) MarkContentViewed(ctx context.Context, userID, recID uuid.UUID) error {
	const query = `
		UPDATE content_recommendations SET viewed_at = $3
		WHERE id = $1 AND user_id = $2 AND viewed_at IS NULL
	`
	tag, err := s.db.Exec(ctx, query, recID, userID, s.now())
	if err != nil {
		return fmt.Errorf("failed to mark content recommendation viewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.assertContentExists(ctx, userID, recID)
	}
	return s.invalidateContentCache(ctx, userID)
}

// DismissContent is idempotent: a second dismiss does not move the timestamp
// or overwrite the original reason.
func (s *Store) DismissContent(ctx context.Context, userID, recID uuid.UUID, reason string) error {
	const query = `
		UPDATE content_recommendations SET dismissed_at = $3, dismiss_reason = $4
		WHERE id = $1 AND user_id = $2 AND dismissed_at IS NULL
	`
	tag, err := s.db.Exec(ctx, query, recID, userID, s.now(), reason)
	if err != nil {
		return fmt.Errorf("failed to dismiss content recommendation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.assertContentExists(ctx, userID, recID)
	}
	return s.invalidateContentCache(ctx, userID)
}

func (s *Store) MarkGroupViewed(ctx context.Context, userID, recID uuid.UUID) error {
	const query = `
		UPDATE group_recommendations SET viewed_at = $3
		WHERE id = $1 AND user_id = $2 AND viewed_at IS NULL
	`
	tag, err := s.db.Exec(ctx, query, recID, userID, s.now())
	if err != nil {
		return fmt.Errorf("failed to mark group recommendation viewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.assertGroupExists(ctx, userID, recID)
	}
	return s.invalidateGroupCache(ctx, userID)
}

func (s *Store) DismissGroup(ctx context.Context, userID, recID uuid.UUID, reason string) error {
	const query = `
		UPDATE group_recommendations SET dismissed_at = $3, dismiss_reason = $4
		WHERE id = $1 AND user_id = $2 AND dismissed_at IS NULL
	`
	tag, err := s.db.Exec(ctx, query, recID, userID, s.now(), reason)
	if err != nil {
		return fmt.Errorf("failed to dismiss group recommendation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.assertGroupExists(ctx, userID, recID)
	}
	return s.invalidateGroupCache(ctx, userID)
}

// ErrNotFound is returned when a recommendation id is unknown or does not
// belong to the caller, so handlers can map it to a 404.
var ErrNotFound = fmt.Errorf("recommendation not found")

func (s *Store) assertContentExists(ctx context.Context, userID, recID uuid.UUID) error {
	const query = `SELECT 1 FROM content_recommendations WHERE id = $1 AND user_id = $2`
	var one int
	err := s.db.QueryRow(ctx, query, recID, userID).Scan(&one)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to verify content recommendation exists: %w", err)
	}
	return nil
}

func (s *Store) assertGroupExists(ctx context.Context, userID, recID uuid.UUID) error {
	const query = `SELECT 1 FROM group_recommendations WHERE id = $1 AND user_id = $2`
	var one int
	err := s.db.QueryRow(ctx, query, recID, userID).Scan(&one)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to verify group recommendation exists: %w", err)
	}
	return nil
}
