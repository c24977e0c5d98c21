package models

import (
	"time"

	"github.com/google/uuid"
)

// PreferredLength buckets a user's typical runtime preference.
type PreferredLength string

const (
	LengthShort  PreferredLength = "SHORT"  // < 30 minutes
	LengthMedium PreferredLength = "MEDIUM" // 30-120 minutes
	LengthLong   PreferredLength = "LONG"   // > 120 minutes
)

// ViewingPersonality is a closed enum; adding a value is a schema change.
type ViewingPersonality string

const (
	PersonalityCasual       ViewingPersonality = "CASUAL"
	PersonalityCritic       ViewingPersonality = "CRITIC"
	PersonalityBingeWatcher ViewingPersonality = "BINGE_WATCHER"
	PersonalityExplorer     ViewingPersonality = "EXPLORER"
	PersonalityComfortSeeker ViewingPersonality = "COMFORT_SEEKER"
	PersonalitySocial       ViewingPersonality = "SOCIAL"
	PersonalityTrendy       ViewingPersonality = "TRENDY"
	PersonalityNiche        ViewingPersonality = "NICHE"
	PersonalityCompletionist ViewingPersonality = "COMPLETIONIST"
	PersonalitySampler      ViewingPersonality = "SAMPLER"
)

// PersonalityOrder is the declared tie-break order for classification.
var PersonalityOrder = []ViewingPersonality{
	PersonalityCasual,
	PersonalityCritic,
	PersonalityBingeWatcher,
	PersonalityExplorer,
	PersonalityComfortSeeker,
	PersonalitySocial,
	PersonalityTrendy,
	PersonalityNiche,
	PersonalityCompletionist,
	PersonalitySampler,
}

// PreferenceProfile is the single per-user taste profile maintained by the
// profile builder. It is never deleted while the user exists; it is mutated
// only by the builder and marked stale by the feedback loop.
type PreferenceProfile struct {
	UserID            uuid.UUID          `json:"user_id" db:"user_id"`
	GenreWeights      map[string]float64 `json:"genre_weights" db:"genre_weights"`
	PlatformWeights   map[string]float64 `json:"platform_weights" db:"platform_weights"`
	EraWeights        map[string]float64 `json:"era_weights" db:"era_weights"`
	PreferredLength   PreferredLength    `json:"preferred_length" db:"preferred_length"`
	AvgRating         float64            `json:"avg_rating" db:"avg_rating"`
	RatingVariance    float64            `json:"rating_variance" db:"rating_variance"`
	TotalInteractions int                `json:"total_interactions" db:"total_interactions"`
	TotalCompleted    int                `json:"total_completed" db:"total_completed"`
	Personality       ViewingPersonality `json:"personality" db:"personality"`
	Confidence        float64            `json:"confidence" db:"confidence"`
	LastCalculatedAt  time.Time          `json:"last_calculated_at" db:"last_calculated_at"`
}

// CompletionRate is derived, never stored independently of its inputs.
func (p *PreferenceProfile) CompletionRate() float64 {
	if p.TotalInteractions == 0 {
		return 0
	}
	return float64(p.TotalCompleted) / float64(p.TotalInteractions)
}

// HasSufficientData gates personalization vs. trending fallback.
func (p *PreferenceProfile) HasSufficientData(minInteractions int, minConfidence float64) bool {
	return p.TotalInteractions >= minInteractions && p.Confidence >= minConfidence
}

// MarkForRecalculation forces the next builder pass to re-derive this
// profile from scratch rather than trust stale weights.
func (p *PreferenceProfile) MarkForRecalculation() {
	p.Confidence = 0
}

// NewDefaultProfile is the zero-confidence profile written when a user has
// no interactions yet.
func NewDefaultProfile(userID uuid.UUID, now time.Time) *PreferenceProfile {
	return &PreferenceProfile{
		UserID:           userID,
		GenreWeights:     map[string]float64{},
		PlatformWeights:  map[string]float64{},
		EraWeights:       map[string]float64{},
		PreferredLength:  LengthMedium,
		AvgRating:        7.0,
		Personality:      PersonalityCasual,
		Confidence:        0,
		LastCalculatedAt: now,
	}
}
