package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/pkg/models"
)

func testPersonalityConfig() config.PersonalityConfig {
	return config.PersonalityConfig{
		BingeInteractionsPerWeek: 10,
		CriticMinRatingCount:     20,
		CriticMaxVariance:        1.5,
		ExplorerMinDiversity:     0.7,
		ComfortMaxDiversity:      0.2,
		CompletionistMinRate:     0.85,
		SamplerMaxCompletionRate: 0.25,
		TrendyMinOverlap:         0.5,
	}
}

func TestClassifyPersonality(t *testing.T) {
	cfg := testPersonalityConfig()

	tests := []struct {
		name     string
		signals  Signals
		expected models.ViewingPersonality
	}{
		{
			name:     "no strong signal falls back to casual",
			signals:  Signals{Diversity: 0.5, CompletionRate: 0.5},
			expected: models.PersonalityCasual,
		},
		{
			name:     "many ratings with low variance is a critic",
			signals:  Signals{RatingCount: 25, RatingVariance: 0.8, Diversity: 0.5, CompletionRate: 0.5},
			expected: models.PersonalityCritic,
		},
		{
			name:     "high interaction rate is a binge watcher",
			signals:  Signals{InteractionsPerWeek: 15, Diversity: 0.5, CompletionRate: 0.5},
			expected: models.PersonalityBingeWatcher,
		},
		{
			name:     "high genre diversity is an explorer",
			signals:  Signals{Diversity: 0.8, CompletionRate: 0.5},
			expected: models.PersonalityExplorer,
		},
		{
			name:     "low genre diversity is a comfort seeker",
			signals:  Signals{Diversity: 0.1, CompletionRate: 0.5},
			expected: models.PersonalityComfortSeeker,
		},
		{
			name:     "group membership is social",
			signals:  Signals{Diversity: 0.5, CompletionRate: 0.5, GroupMembershipCount: 2},
			expected: models.PersonalitySocial,
		},
		{
			name:     "high completion rate is a completionist",
			signals:  Signals{Diversity: 0.5, CompletionRate: 0.9},
			expected: models.PersonalityCompletionist,
		},
		{
			name:     "low completion rate is a sampler",
			signals:  Signals{Diversity: 0.5, CompletionRate: 0.1},
			expected: models.PersonalitySampler,
		},
		{
			name:     "earlier order wins when multiple conditions match",
			signals:  Signals{RatingCount: 25, RatingVariance: 0.8, InteractionsPerWeek: 15, Diversity: 0.5, CompletionRate: 0.5},
			expected: models.PersonalityCritic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyPersonality(tt.signals, cfg))
		})
	}
}
