package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationReason is a closed enum; adding a value is a schema change
// that requires backfilling existing explanations.
type RecommendationReason string

const (
	ReasonGenreMatch        RecommendationReason = "GENRE_MATCH"
	ReasonSimilarContent    RecommendationReason = "SIMILAR_CONTENT"
	ReasonGroupActivity     RecommendationReason = "GROUP_ACTIVITY"
	ReasonSimilarUsers      RecommendationReason = "SIMILAR_USERS"
	ReasonTrendingGlobal    RecommendationReason = "TRENDING_GLOBAL"
	ReasonTrendingGenre     RecommendationReason = "TRENDING_GENRE"
	ReasonHighlyRated       RecommendationReason = "HIGHLY_RATED"
	ReasonNewRelease        RecommendationReason = "NEW_RELEASE"
	ReasonAwardWinner       RecommendationReason = "AWARD_WINNER"
	ReasonCompletionPattern RecommendationReason = "COMPLETION_PATTERN"
	ReasonBingeWorthy       RecommendationReason = "BINGE_WORTHY"
	ReasonGeneral           RecommendationReason = "GENERAL"
)

// RecommendationType identifies which generator mode produced a row.
type RecommendationType string

const (
	TypePersonal      RecommendationType = "PERSONAL"
	TypeGroup         RecommendationType = "GROUP"
	TypeTrending      RecommendationType = "TRENDING"
	TypeCollaborative RecommendationType = "COLLABORATIVE"
	TypeContentBased  RecommendationType = "CONTENT_BASED"
)

// ContentRecommendation targets a single media item for a single user.
type ContentRecommendation struct {
	ID            uuid.UUID            `json:"id" db:"id"`
	UserID        uuid.UUID            `json:"user_id" db:"user_id"`
	MediaID       uuid.UUID            `json:"media_id" db:"media_id"`
	Score         float64              `json:"score" db:"score"`
	Reason        RecommendationReason `json:"reason" db:"reason"`
	Explanation   string               `json:"explanation" db:"explanation"`
	Type          RecommendationType   `json:"type" db:"type"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	ExpiresAt     time.Time            `json:"expires_at" db:"expires_at"`
	ViewedAt      *time.Time           `json:"viewed_at,omitempty" db:"viewed_at"`
	DismissedAt   *time.Time           `json:"dismissed_at,omitempty" db:"dismissed_at"`
	DismissReason string               `json:"dismiss_reason,omitempty" db:"dismiss_reason"`
}

// IsActive matches the store's definition: not dismissed, not expired.
func (r *ContentRecommendation) IsActive(now time.Time) bool {
	return r.DismissedAt == nil && now.Before(r.ExpiresAt)
}

// MarkViewed is idempotent: a second call is a no-op.
func (r *ContentRecommendation) MarkViewed(now time.Time) {
	if r.ViewedAt == nil {
		r.ViewedAt = &now
	}
}

// Dismiss is idempotent: a second call does not move the timestamp.
func (r *ContentRecommendation) Dismiss(now time.Time, reason string) {
	if r.DismissedAt == nil {
		r.DismissedAt = &now
		r.DismissReason = reason
	}
}

// GroupRecommendation targets a group rather than a media item; it shares
// ContentRecommendation's state machine.
type GroupRecommendation struct {
	ID            uuid.UUID            `json:"id" db:"id"`
	UserID        uuid.UUID            `json:"user_id" db:"user_id"`
	GroupID       uuid.UUID            `json:"group_id" db:"group_id"`
	Score         float64              `json:"score" db:"score"`
	Reason        RecommendationReason `json:"reason" db:"reason"`
	Explanation   string               `json:"explanation" db:"explanation"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	ExpiresAt     time.Time            `json:"expires_at" db:"expires_at"`
	ViewedAt      *time.Time           `json:"viewed_at,omitempty" db:"viewed_at"`
	DismissedAt   *time.Time           `json:"dismissed_at,omitempty" db:"dismissed_at"`
	DismissReason string               `json:"dismiss_reason,omitempty" db:"dismiss_reason"`
}

func (r *GroupRecommendation) IsActive(now time.Time) bool {
	return r.DismissedAt == nil && now.Before(r.ExpiresAt)
}

func (r *GroupRecommendation) MarkViewed(now time.Time) {
	if r.ViewedAt == nil {
		r.ViewedAt = &now
	}
}

func (r *GroupRecommendation) Dismiss(now time.Time, reason string) {
	if r.DismissedAt == nil {
		r.DismissedAt = &now
		r.DismissReason = reason
	}
}

// PagedResponse is the stable shape used by every list endpoint (§6):
// {content, page, size, totalElements}.
type PagedResponse[T any] struct {
	Content       []T `json:"content"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
}
