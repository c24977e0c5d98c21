package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecommendationKind disambiguates which table a feedback row targets.
type RecommendationKind string

const (
	KindContent RecommendationKind = "CONTENT"
	KindGroup   RecommendationKind = "GROUP"
)

// FeedbackType is inferred from an explicit score when present.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "POSITIVE"
	FeedbackNegative FeedbackType = "NEGATIVE"
	FeedbackNeutral  FeedbackType = "NEUTRAL"
)

// FeedbackWeight maps a feedback type to its signed contribution.
func FeedbackWeight(t FeedbackType) float64 {
	switch t {
	case FeedbackPositive:
		return 1
	case FeedbackNegative:
		return -1
	default:
		return 0
	}
}

// InferFeedbackType applies the fixed score thresholds: >=4 POSITIVE,
// <=2 NEGATIVE, otherwise NEUTRAL.
func InferFeedbackType(score int) FeedbackType {
	switch {
	case score >= 4:
		return FeedbackPositive
	case score <= 2:
		return FeedbackNegative
	default:
		return FeedbackNeutral
	}
}

// ActionTaken records what the user did alongside (or instead of) scoring.
type ActionTaken string

const (
	ActionJoinedGroup     ActionTaken = "JOINED_GROUP"
	ActionAddedToLibrary  ActionTaken = "ADDED_TO_LIBRARY"
	ActionDismissed       ActionTaken = "DISMISSED"
	ActionViewed          ActionTaken = "VIEWED"
)

const maxFeedbackTextLen = 1000

// RecommendationFeedback is immutable once created.
type RecommendationFeedback struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	UserID             uuid.UUID          `json:"user_id" db:"user_id"`
	RecommendationKind RecommendationKind `json:"recommendation_kind" db:"recommendation_kind"`
	RecommendationID   uuid.UUID          `json:"recommendation_id" db:"recommendation_id"`
	FeedbackType       FeedbackType       `json:"feedback_type" db:"feedback_type"`
	Score              *int               `json:"score,omitempty" db:"score"`
	Text               string             `json:"text,omitempty" db:"text"`
	ActionTaken        ActionTaken        `json:"action_taken,omitempty" db:"action_taken"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
}

// ClipText enforces the 1000-char free-text cap at construction time.
func ClipText(text string) string {
	if len(text) <= maxFeedbackTextLen {
		return text
	}
	return text[:maxFeedbackTextLen]
}

// NewFeedback builds a feedback row, inferring FeedbackType from score when
// present and clipping free text. score is nil when the caller supplied no
// rating, in which case the feedback type is NEUTRAL.
func NewFeedback(userID uuid.UUID, kind RecommendationKind, recID uuid.UUID, score *int, text string, action ActionTaken, now time.Time) *RecommendationFeedback {
	ft := FeedbackNeutral
	if score != nil {
		ft = InferFeedbackType(*score)
	}
	return &RecommendationFeedback{
		ID:                 uuid.New(),
		UserID:             userID,
		RecommendationKind: kind,
		RecommendationID:   recID,
		FeedbackType:       ft,
		Score:              score,
		Text:               strings.TrimSpace(ClipText(text)),
		ActionTaken:        action,
		CreatedAt:          now,
	}
}
