package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/showsync/reccore/pkg/models"
)

// cacheTTL is the per-user read-through cache lifetime; spec.md caps it at
// 60s so a write is never stale-visible for longer than that.
const cacheTTL = 60 * time.Second

// ListActiveContent serves a page of a user's active content recommendations
// — not dismissed, not expired — sorted by score descending, tiebreak
// createdAt descending, through a short-TTL per-(user,page,size) cache.
func (s *Store) ListActiveContent(ctx context.Context, userID uuid.UUID, page, size int) (*models.PagedResponse[*models.ContentRecommendation], error) {
	key := contentCacheKey(userID, page, size)

	if cached, ok := s.readCachedContentPage(ctx, key); ok {
		return cached, nil
	}

	now := s.now()
	const query = `
		SELECT id, user_id, media_id, score, reason, explanation, type, created_at, expires_at, viewed_at, dismissed_at, dismiss_reason
		FROM content_recommendations
		WHERE user_id = $1 AND dismissed_at IS NULL AND expires_at > $2
		ORDER BY score DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := s.db.Query(ctx, query, userID, now, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list active content recommendations: %w", err)
	}
	defer rows.Close()

	var content []*models.ContentRecommendation
	for rows.Next() {
		var r models.ContentRecommendation
		if err := rows.Scan(&r.ID, &r.UserID, &r.MediaID, &r.Score, &r.Reason, &r.Explanation, &r.Type, &r.CreatedAt, &r.ExpiresAt, &r.ViewedAt, &r.DismissedAt, &r.DismissReason); err != nil {
			return nil, fmt.Errorf("failed to scan content recommendation row: %w", err)
		}
		content = append(content, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total, err := s.countActiveContent(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	resp := &models.PagedResponse[*models.ContentRecommendation]{Content: content, Page: page, Size: size, TotalElements: total}
	s.writeCachedContentPage(ctx, key, resp)
	return resp, nil
}

// ListGroupSuggestions mirrors ListActiveContent for group recommendations.
func (s *Store) ListGroupSuggestions(ctx context.Context, userID uuid.UUID, page, size int) (*models.PagedResponse[*models.GroupRecommendation], error) {
	key := groupCacheKey(userID, page, size)

	if cached, ok := s.readCachedGroupPage(ctx, key); ok {
		return cached, nil
	}

	now := s.now()
	const query = `
		SELECT id, user_id, group_id, score, reason, explanation, created_at, expires_at, viewed_at, dismissed_at, dismiss_reason
		FROM group_recommendations
		WHERE user_id = $1 AND dismissed_at IS NULL AND expires_at > $2
		ORDER BY score DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := s.db.Query(ctx, query, userID, now, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list group recommendations: %w", err)
	}
	defer rows.Close()

	var content []*models.GroupRecommendation
	for rows.Next() {
		var r models.GroupRecommendation
		if err := rows.Scan(&r.ID, &r.UserID, &r.GroupID, &r.Score, &r.Reason, &r.Explanation, &r.CreatedAt, &r.ExpiresAt, &r.ViewedAt, &r.DismissedAt, &r.DismissReason); err != nil {
			return nil, fmt.Errorf("failed to scan group recommendation row: %w", err)
		}
		content = append(content, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total, err := s.countActiveGroup(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	resp := &models.PagedResponse[*models.GroupRecommendation]{Content: content, Page: page, Size: size, TotalElements: total}
	s.writeCachedGroupPage(ctx, key, resp)
	return resp, nil
}

// ListActiveContentByReason filters a user's active content recommendations
// down to a single RecommendationReason, for the by-type endpoint. It is
// capped by limit rather than paged since callers use it for a single
// bounded fetch rather than infinite scroll.
func (s *Store) ListActiveContentByReason(ctx context.Context, userID uuid.UUID, reason models.RecommendationReason, limit int) ([]*models.ContentRecommendation, error) {
	now := s.now()
	const query = `
		SELECT id, user_id, media_id, score, reason, explanation, type, created_at, expires_at, viewed_at, dismissed_at, dismiss_reason
		FROM content_recommendations
		WHERE user_id = $1 AND reason = $2 AND dismissed_at IS NULL AND expires_at > $3
		ORDER BY score DESC, created_at DESC
		LIMIT $4
	`
	rows, err := s.db.Query(ctx, query, userID, reason, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list content recommendations by reason: %w", err)
	}
	defer rows.Close()

	var content []*models.ContentRecommendation
	for rows.Next() {
		var r models.ContentRecommendation
		if err := rows.Scan(&r.ID, &r.UserID, &r.MediaID, &r.Score, &r.Reason, &r.Explanation, &r.Type, &r.CreatedAt, &r.ExpiresAt, &r.ViewedAt, &r.DismissedAt, &r.DismissReason); err != nil {
			return nil, fmt.Errorf("failed to scan content recommendation row: %w", err)
		}
		content = append(content, &r)
	}
	return content, rows.Err()
}

func (s *Store) countActiveContent(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM content_recommendations WHERE user_id = $1 AND dismissed_at IS NULL AND expires_at > $2`
	var count int
	if err := s.db.QueryRow(ctx, query, userID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active content recommendations: %w", err)
	}
	return count, nil
}

func (s *Store) countActiveGroup(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM group_recommendations WHERE user_id = $1 AND dismissed_at IS NULL AND expires_at > $2`
	var count int
	if err := s.db.QueryRow(ctx, query, userID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active group recommendations: %w", err)
	}
	return count, nil
}

func contentCacheKey(userID uuid.UUID, page, size int) string {
	return fmt.Sprintf("recs:content:%s:%d:%d", userID, page, size)
}

func groupCacheKey(userID uuid.UUID, page, size int) string {
	return fmt.Sprintf("recs:group:%s:%d:%d", userID, page, size)
}

func (s *Store) readCachedContentPage(ctx context.Context, key string) (*models.PagedResponse[*models.ContentRecommendation], bool) {
	if s.warm == nil {
		return nil, false
	}
	raw, err := s.warm.Get(ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var page models.PagedResponse[*models.ContentRecommendation]
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false
	}
	return &page, true
}

func (s *Store) writeCachedContentPage(ctx context.Context, key string, page *models.PagedResponse[*models.ContentRecommendation]) {
	if s.warm == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	_ = s.warm.Set(ctx, key, string(raw), cacheTTL)
}

func (s *Store) readCachedGroupPage(ctx context.Context, key string) (*models.PagedResponse[*models.GroupRecommendation], bool) {
	if s.warm == nil {
		return nil, false
	}
	raw, err := s.warm.Get(ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var page models.PagedResponse[*models.GroupRecommendation]
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false
	}
	return &page, true
}

func (s *Store) writeCachedGroupPage(ctx context.Context, key string, page *models.PagedResponse[*models.GroupRecommendation]) {
	if s.warm == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	_ = s.warm.Set(ctx, key, string(raw), cacheTTL)
}

// invalidateContentCache drops every cached page for userID. Pages are
// keyed by size too, but size choices in practice are limited to a handful
// of values the UI uses, so a small fixed sweep covers them without a
// Redis SCAN on the hot write path.
func (s *Store) invalidateContentCache(ctx context.Context, userID uuid.UUID) error {
	if s.warm == nil {
		return nil
	}
	return s.warm.Del(ctx, cacheKeysToInvalidate("recs:content", userID)...)
}

func (s *Store) invalidateGroupCache(ctx context.Context, userID uuid.UUID) error {
	if s.warm == nil {
		return nil
	}
	return s.warm.Del(ctx, cacheKeysToInvalidate("recs:group", userID)...)
}

// commonPageSizes bounds the fixed invalidation sweep; pages/sizes outside
// this set simply expire on their own short TTL instead of being evicted
// eagerly.
var commonPageSizes = []int{10, 20, 25, 50}

const commonPageDepth = 10

func cacheKeysToInvalidate(prefix string, userID uuid.UUID) []string {
	keys := make([]string, 0, len(commonPageSizes)*commonPageDepth)
	for _, size := range commonPageSizes {
		for page := 0; page < commonPageDepth; page++ {
			keys = append(keys, fmt.Sprintf("%s:%s:%d:%d", prefix, userID, page, size))
		}
	}
	return keys
}
