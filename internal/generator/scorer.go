// Package generator implements the Recommendation Generator: the five
// generator modes (PERSONAL, COLLABORATIVE, CONTENT_BASED, TRENDING, GROUP)
// consume a profile and a candidate pool, apply the weighted scoring
// function, diversify, and explain.
package generator

import (
	"math"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/kernel"
	"github.com/showsync/reccore/pkg/models"
)

// breakdown is the per-term contribution to a candidate's score, kept
// around so the dominant term can be turned into a RecommendationReason.
type breakdown struct {
	Genre    float64
	Rating   float64
	Platform float64
	Era      float64
}

func genreMatch(m *models.Media, p *models.PreferenceProfile) float64 {
	tags := make(map[string]float64, len(m.Genres))
	for _, g := range m.Genres {
		tags[g] = 1.0
	}
	return kernel.CosineSimilarity(tags, p.GenreWeights)
}

func ratingFit(m *models.Media, p *models.PreferenceProfile) float64 {
	if m.AverageRating == nil {
		return 0
	}
	return 1 - math.Abs(*m.AverageRating/10-p.AvgRating/10)
}

func platformMatch(m *models.Media, p *models.PreferenceProfile) float64 {
	tags := make(map[string]float64, len(m.Platforms))
	for _, pl := range m.Platforms {
		tags[pl] = 1.0
	}
	return kernel.CosineSimilarity(tags, p.PlatformWeights)
}

func eraMatch(m *models.Media, p *models.PreferenceProfile) float64 {
	tags := map[string]float64{m.EraBucket(): 1.0}
	return kernel.CosineSimilarity(tags, p.EraWeights)
}

// ScoreCandidate implements spec.md's weighted scoring function:
// score = wG*genreMatch + wR*ratingFit + wP*platformMatch + wE*eraMatch.
// The caller is expected to have already validated that the weights sum to
// one (config.Validate does this at startup).
func ScoreCandidate(m *models.Media, p *models.PreferenceProfile, w config.WeightConfig) (float64, breakdown) {
	b := breakdown{
		Genre:    w.Genre * genreMatch(m, p),
		Rating:   w.Rating * ratingFit(m, p),
		Platform: w.Platform * platformMatch(m, p),
		Era:      w.Era * eraMatch(m, p),
	}
	return b.Genre + b.Rating + b.Platform + b.Era, b
}

// dominantReason maps the largest weighted term onto the closed
// RecommendationReason enum. Platform/era dominance has no dedicated reason
// in the enum, so it falls back to GENERAL.
func dominantReason(b breakdown) models.RecommendationReason {
	largest := b.Genre
	reason := models.ReasonGenreMatch

	if b.Rating > largest {
		largest = b.Rating
		reason = models.ReasonHighlyRated
	}
	if b.Platform > largest {
		largest = b.Platform
		reason = models.ReasonGeneral
	}
	if b.Era > largest {
		reason = models.ReasonGeneral
	}
	return reason
}

// ApplyPersonalizationFactor boosts a base score by the profile's
// confidence, per spec.md §4.3.
func ApplyPersonalizationFactor(score float64, confidence float64, factor float64) float64 {
	return score * (1 + factor*confidence)
}

// ApplyExplorationFactor adds a small, deterministic-per-user-per-day
// perturbation so results vary day to day but stay stable within a day.
func ApplyExplorationFactor(score float64, seed uint64, explorationFactor float64) float64 {
	// fnv-derived seed mapped to [-1, 1]; see ExplorationSeed.
	normalized := float64(seed%2000)/1000 - 1
	return score + explorationFactor*normalized
}
