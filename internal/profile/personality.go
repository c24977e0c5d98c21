package profile

import (
	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/pkg/models"
)

// Signals are the interaction-derived inputs to personality classification.
// GroupMembershipCount and TrendingOverlap default to 0 when the caller has
// no access to group or trending data yet; the classifier degrades to
// CASUAL for the personalities that depend on them rather than guessing.
type Signals struct {
	RatingCount         int
	RatingVariance      float64
	InteractionsPerWeek float64
	Diversity           float64
	CompletionRate      float64
	GroupMembershipCount int
	TrendingOverlap     float64
}

// ClassifyPersonality walks models.PersonalityOrder (skipping the CASUAL
// default) and returns the first personality whose condition holds; CASUAL
// is returned when nothing more specific matches.
func ClassifyPersonality(s Signals, cfg config.PersonalityConfig) models.ViewingPersonality {
	for _, p := range models.PersonalityOrder {
		if p == models.PersonalityCasual {
			continue
		}
		if matches(p, s, cfg) {
			return p
		}
	}
	return models.PersonalityCasual
}

func matches(p models.ViewingPersonality, s Signals, cfg config.PersonalityConfig) bool {
	switch p {
	case models.PersonalityCritic:
		return s.RatingCount >= cfg.CriticMinRatingCount && s.RatingVariance <= cfg.CriticMaxVariance
	case models.PersonalityBingeWatcher:
		return s.InteractionsPerWeek >= cfg.BingeInteractionsPerWeek
	case models.PersonalityExplorer:
		return s.Diversity >= cfg.ExplorerMinDiversity
	case models.PersonalityComfortSeeker:
		return s.Diversity <= cfg.ComfortMaxDiversity
	case models.PersonalitySocial:
		return s.GroupMembershipCount >= 1
	case models.PersonalityTrendy:
		return s.TrendingOverlap >= cfg.TrendyMinOverlap
	case models.PersonalityNiche:
		return s.TrendingOverlap > 0 && s.TrendingOverlap < (1 - cfg.TrendyMinOverlap)
	case models.PersonalityCompletionist:
		return s.CompletionRate >= cfg.CompletionistMinRate
	case models.PersonalitySampler:
		return s.CompletionRate <= cfg.SamplerMaxCompletionRate
	default:
		return false
	}
}
