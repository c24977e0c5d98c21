package profile

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/kernel"
	"github.com/showsync/reccore/pkg/models"
)

// epsilon is the minimum weight a genre/platform/era key must clear after
// normalization to stay in a profile; everything at or below it is noise.
const epsilon = 0.01

// Builder derives a PreferenceProfile from a user's interaction history.
// It is stateless aside from its dependencies, so a single instance is
// safe to share across the scheduler's worker pool.
type Builder struct {
	db  DatabaseQuerier
	cfg *config.Config
	now func() time.Time
}

func NewBuilder(db DatabaseQuerier, cfg *config.Config) *Builder {
	return &Builder{db: db, cfg: cfg, now: time.Now}
}

// BuildProfile runs the seven-step derivation: read interactions, fold them
// into signed, time-decayed genre/platform/era weights, normalize and prune,
// recompute the rating/completion statistics, classify the personality, and
// score confidence. A user with no interactions gets the zero-confidence
// default profile rather than an error.
func (b *Builder) BuildProfile(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	now := b.now()

	rows, err := fetchInteractions(ctx, b.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile for %s: %w", userID, err)
	}

	if len(rows) == 0 {
		return models.NewDefaultProfile(userID, now), nil
	}

	genreWeights := map[string]float64{}
	platformWeights := map[string]float64{}
	eraWeights := map[string]float64{}

	var ratings []float64
	var runtimes []float64
	totalCompleted := 0
	earliest := rows[0].UpdatedAt

	for _, r := range rows {
		if r.UpdatedAt.Before(earliest) {
			earliest = r.UpdatedAt
		}
		if r.Status == models.StatusCompleted {
			totalCompleted++
		}
		if r.Rating != nil {
			ratings = append(ratings, *r.Rating)
		}
		if r.RuntimeMinutes != nil {
			runtimes = append(runtimes, float64(*r.RuntimeMinutes))
		}

		influence := interactionInfluence(r)
		decayed := kernel.ApplyTimeDecay(influence, r.UpdatedAt, now, b.cfg.Recs.DecayPerDay)

		for _, genre := range r.Genres {
			genreWeights[genre] += decayed
		}
		for _, platform := range r.Platforms {
			platformWeights[platform] += decayed
		}
		era := models.Media{ReleaseDate: r.ReleaseDate}.EraBucket()
		eraWeights[era] += decayed
	}

	genreWeights = pruneAndNormalize(genreWeights)
	platformWeights = pruneAndNormalize(platformWeights)
	eraWeights = pruneAndNormalize(eraWeights)

	avgRating, ratingVariance := ratingStats(ratings)
	if len(ratings) == 0 {
		avgRating = 7.0
	}

	totalInteractions := len(rows)
	completionRate := float64(totalCompleted) / float64(totalInteractions)

	timeSpanDays := math.Max(0, now.Sub(earliest).Hours()/24)
	diversity := kernel.CalculateDiversity(genreWeights)
	confidence := kernel.CalculateConfidenceScore(totalInteractions, timeSpanDays, diversity)

	weeks := math.Max(timeSpanDays/7, 1.0/7)
	signals := Signals{
		RatingCount:         len(ratings),
		RatingVariance:      ratingVariance,
		InteractionsPerWeek: float64(totalInteractions) / weeks,
		Diversity:           diversity,
		CompletionRate:      completionRate,
	}
	personality := ClassifyPersonality(signals, b.cfg.Recs.Personality)

	return &models.PreferenceProfile{
		UserID:            userID,
		GenreWeights:      genreWeights,
		PlatformWeights:   platformWeights,
		EraWeights:        eraWeights,
		PreferredLength:   preferredLength(runtimes),
		AvgRating:         avgRating,
		RatingVariance:    ratingVariance,
		TotalInteractions: totalInteractions,
		TotalCompleted:    totalCompleted,
		Personality:       personality,
		Confidence:        confidence,
		LastCalculatedAt:  now,
	}, nil
}

// Refresh rebuilds the profile from the user's interactions and upserts it;
// the previously persisted profile is not read. A failure to fetch
// interactions aborts before anything is written, so whatever profile
// exists is left as it was.
func (b *Builder) Refresh(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	rebuilt, err := b.BuildProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := SaveProfile(ctx, b.db, rebuilt); err != nil {
		return nil, err
	}
	return rebuilt, nil
}

// GetOrBuild returns the persisted profile if one exists, otherwise builds
// and persists a fresh one.
func (b *Builder) GetOrBuild(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	p, err := LoadProfile(ctx, b.db, userID)
	if err == nil {
		return p, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}
	return b.Refresh(ctx, userID)
}

// interactionInfluence assigns a signed weight to an interaction before
// time decay: explicit ratings dominate, status carries a smaller signal
// for items the user never rated.
func interactionInfluence(r interactionRow) float64 {
	if r.Rating != nil {
		return (*r.Rating - 5.0) / 5.0
	}

	switch r.Status {
	case models.StatusCompleted:
		return 0.3
	case models.StatusDropped:
		return -0.5
	case models.StatusPlanToDo:
		return 0.1
	case models.StatusWatching:
		return 0.1
	default:
		return 0
	}
}

func pruneAndNormalize(weights map[string]float64) map[string]float64 {
	normalized := kernel.NormalizeScores(weights)
	out := make(map[string]float64, len(normalized))
	for k, v := range normalized {
		if v > epsilon {
			out[k] = v
		}
	}
	return out
}

func ratingStats(ratings []float64) (avg, variance float64) {
	if len(ratings) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	avg = sum / float64(len(ratings))

	if len(ratings) < 2 {
		return avg, 0
	}
	var sumSq float64
	for _, r := range ratings {
		d := r - avg
		sumSq += d * d
	}
	variance = sumSq / float64(len(ratings)-1)
	return avg, variance
}

func preferredLength(runtimes []float64) models.PreferredLength {
	if len(runtimes) == 0 {
		return models.LengthMedium
	}
	var sum float64
	for _, r := range runtimes {
		sum += r
	}
	avg := sum / float64(len(runtimes))

	switch {
	case avg < 30:
		return models.LengthShort
	case avg <= 120:
		return models.LengthMedium
	default:
		return models.LengthLong
	}
}
